// Package manager is horao's composition root: it owns the mutex-guarded
// replica (logical clock + infrastructure + data centers), and wires the
// scheduler and peer synchronizer against that shared state the way the
// teacher's pkg/manager wired Raft, its FSM, and its store.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/horao-project/horao/pkg/clock"
	"github.com/horao-project/horao/pkg/domain"
	"github.com/horao-project/horao/pkg/log"
	"github.com/horao-project/horao/pkg/replication"
	"github.com/horao-project/horao/pkg/scheduler"
	"github.com/horao-project/horao/pkg/storage"
)

const clockStoreKey = "clock"

// Replica is one peer's copy of horao's replicated state: a logical
// clock, the data centers and networks that make up the infrastructure,
// and the claims and per-tenant constraints layered over them. Every public
// method that touches CRDT state takes the same mutex, satisfying
// spec.md's §5 single-writer-per-replica requirement.
type Replica struct {
	mu sync.RWMutex

	clock          *clock.Scalar
	infrastructure *domain.LogicalInfrastructure
	dataCenters    map[string]*domain.DataCenter

	store        storage.Store
	scheduler    *scheduler.Scheduler
	synchronizer *replication.Synchronizer

	cfg    Config
	logger zerolog.Logger
}

// New constructs a Replica, restoring its logical clock from store if one
// was persisted by a prior run, and wiring a Scheduler and Synchronizer
// against the new, empty infrastructure.
func New(cfg Config, store storage.Store) (*Replica, error) {
	c, err := restoreOrCreateClock(store)
	if err != nil {
		return nil, fmt.Errorf("manager: restore clock: %w", err)
	}

	infrastructure := domain.NewLogicalInfrastructure()
	r := &Replica{
		clock:          c,
		infrastructure: infrastructure,
		dataCenters:    make(map[string]*domain.DataCenter),
		store:          store,
		cfg:            cfg,
		logger:         log.WithComponent("manager"),
	}
	r.scheduler = scheduler.New(infrastructure, cfg.Scheduler)
	r.synchronizer = replication.New(cfg.Replication, store)
	return r, nil
}

func restoreOrCreateClock(store storage.Store) (*clock.Scalar, error) {
	data, err := store.Get(clockStoreKey)
	if err == storage.ErrNotFound {
		return clock.NewScalar(), nil
	}
	if err != nil {
		return nil, err
	}
	return clock.UnpackScalar(data)
}

// PersistClock writes the replica's current clock state to the store, so
// a restart resumes with timestamps strictly ahead of anything already
// issued.
func (r *Replica) PersistClock() error {
	r.mu.RLock()
	packed := r.clock.Pack()
	r.mu.RUnlock()
	return r.store.Set(clockStoreKey, packed)
}

// Clock returns the replica's logical clock.
func (r *Replica) Clock() *clock.Scalar {
	return r.clock
}

// Scheduler returns the replica's scheduler.
func (r *Replica) Scheduler() *scheduler.Scheduler {
	return r.scheduler
}

// Infrastructure returns the replica's logical infrastructure. Callers
// performing anything beyond a read should hold the mutex via WithLock.
func (r *Replica) Infrastructure() *domain.LogicalInfrastructure {
	return r.infrastructure
}

// AddDataCenter registers a new data center (with its associated
// networks) in the replica and arms the peer synchronizer's change
// listener on it.
func (r *Replica) AddDataCenter(dc *domain.DataCenter, networks []*domain.DataCenterNetwork) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataCenters[dc.Name] = dc
	r.infrastructure.DataCenters[dc] = networks
	r.synchronizer.Watch(dc.Name, dc)
}

// DataCenter looks up a registered data center by name.
func (r *Replica) DataCenter(name string) (*domain.DataCenter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dc, ok := r.dataCenters[name]
	return dc, ok
}

// AddTenant records constraint, if non-nil, as the limit bounding
// tenant's claims, keyed by tenant name. The tenant itself is not stored.
func (r *Replica) AddTenant(tenant domain.Tenant, constraint *domain.Constraint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if constraint != nil {
		r.infrastructure.Constraints[tenant.Name] = *constraint
	}
}

// WithLock runs fn holding the replica's write lock, for callers that
// need to mutate domain state directly (inventory reconciliation, manual
// admin actions) through more than one CRDT operation atomically.
func (r *Replica) WithLock(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// Schedule admits or rejects a reservation claim on behalf of tenant,
// delegating to the scheduler under the replica's write lock so no
// concurrent mutation can interleave with the admission's read-only
// capacity pass and its final commit.
func (r *Replica) Schedule(claim domain.Claim, tenant domain.Tenant, now time.Time) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduler.Schedule(claim, tenant, now)
}

// Synchronize runs one peer synchronization round if the trigger
// predicate in spec.md's §4.7 is met.
func (r *Replica) Synchronize(ctx context.Context, now time.Time) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.synchronizer.Synchronize(ctx, now)
}

// ReceivePeerUpdate verifies and applies a peer-originated synchronize
// request, used by the (out-of-scope) HTTP handler for POST /synchronize.
func (r *Replica) ReceivePeerUpdate(bearerToken string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.synchronizer.Receive(bearerToken, body)
}
