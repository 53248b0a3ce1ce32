// Package scheduler implements horao's admission algorithm: deciding
// whether a tenant's reservation claim fits within tenant constraints and
// infrastructure capacity, and when it can start.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/horao-project/horao/pkg/domain"
	"github.com/horao-project/horao/pkg/log"
	"github.com/horao-project/horao/pkg/metrics"
	"github.com/rs/zerolog"
)

// ErrNoStartDate is returned when a reservation carries no start date and
// dynamic start is disabled.
var ErrNoStartDate = errors.New("scheduler: claim cannot be realised, no start date specified and dynamic start not enabled")

// ErrUnrealisable is returned when dynamic start scanned its whole
// planning window without finding a feasible slot.
var ErrUnrealisable = errors.New("scheduler: claim cannot be realised")

// Config holds the scheduler's admission-tuning parameters, sourced from
// the environment the same way the teacher's manager.Config is.
type Config struct {
	// DynamicStart enables scanning for a feasible start date when the
	// reservation doesn't request one. Disabled by default, matching the
	// original SchedulerFeature opt-in.
	DynamicStart bool

	// PlanningWindow bounds how far into the future dynamic start scans.
	PlanningWindow time.Duration

	// PlanningInterval is the step size between dynamic-start probes.
	PlanningInterval time.Duration
}

// DefaultConfig returns the defaults named in the environment variable
// table: a 31 day planning window probed hourly, dynamic start disabled.
func DefaultConfig() Config {
	return Config{
		DynamicStart:     false,
		PlanningWindow:   31 * 24 * time.Hour,
		PlanningInterval: time.Hour,
	}
}

// Scheduler admits or rejects reservation claims against a logical
// infrastructure replica. It never mutates CRDT state outside the final
// commit step, so two replicas evaluating identical state reach identical
// decisions.
type Scheduler struct {
	infrastructure *domain.LogicalInfrastructure
	cfg            Config
	logger         zerolog.Logger
}

// New creates a Scheduler evaluating claims against infrastructure.
func New(infrastructure *domain.LogicalInfrastructure, cfg Config) *Scheduler {
	return &Scheduler{
		infrastructure: infrastructure,
		cfg:            cfg,
		logger:         log.WithComponent("scheduler"),
	}
}

// Schedule evaluates claim (which must carry a Reservation) on behalf of
// tenant and, if admitted, appends it to the infrastructure's claim list.
// It returns the claim's resolved start time.
func (s *Scheduler) Schedule(claim domain.Claim, tenant domain.Tenant, now time.Time) (time.Time, error) {
	timer := metrics.NewTimer()
	start, err := s.schedule(claim, tenant, now)
	timer.ObserveDuration(metrics.SchedulerDecisionDuration)
	if err != nil {
		metrics.SchedulerDecisionsTotal.WithLabelValues("rejected", reasonLabel(err)).Inc()
		s.logger.Warn().Str("claim", claim.Name).Str("tenant", tenant.Name).Err(err).Msg("claim rejected")
		return time.Time{}, err
	}
	metrics.SchedulerDecisionsTotal.WithLabelValues("admitted", "").Inc()
	s.logger.Info().Str("claim", claim.Name).Str("tenant", tenant.Name).Time("start", start).Msg("claim admitted")
	return start, nil
}

func (s *Scheduler) schedule(claim domain.Claim, tenant domain.Tenant, now time.Time) (time.Time, error) {
	if claim.Reservation == nil {
		return time.Time{}, fmt.Errorf("scheduler: claim %q has no reservation", claim.Name)
	}
	reservation := *claim.Reservation

	if err := s.checkTenantConstraints(tenant, reservation); err != nil {
		return time.Time{}, err
	}

	cpuTotal, ramTotal, acceleratorTotal, blockTotal := s.infrastructure.Limits(reservation.HSNOnly)
	cpuClaim, ramClaim, acceleratorClaim, blockClaim := reservation.Extract()

	if claim.Start != nil {
		start := *claim.Start
		cpuUsed, ramUsed, acceleratorUsed, blockUsed := s.overlappingUsage(claim, func(c domain.Claim) bool {
			return fixedStartOverlap(c, claim)
		})
		if cpuClaim > cpuTotal-cpuUsed {
			return time.Time{}, errors.New("scheduler: claim exceeds compute CPU infrastructure limits")
		}
		if ramClaim > ramTotal-ramUsed {
			return time.Time{}, errors.New("scheduler: claim exceeds compute RAM infrastructure limits")
		}
		if acceleratorClaim > acceleratorTotal-acceleratorUsed {
			return time.Time{}, errors.New("scheduler: claim exceeds compute accelerator infrastructure limits")
		}
		if blockClaim > blockTotal-blockUsed {
			return time.Time{}, errors.New("scheduler: claim exceeds block storage infrastructure limits")
		}
		s.commit(claim, tenant)
		return start, nil
	}

	if !s.cfg.DynamicStart {
		return time.Time{}, ErrNoStartDate
	}

	start, ok := s.dynamicStart(claim, now)
	if !ok {
		return time.Time{}, ErrUnrealisable
	}
	claim.Start = &start
	s.commit(claim, tenant)
	return start, nil
}

// checkTenantConstraints rejects a reservation whose summed resources
// exceed any one of the tenant's four limit dimensions. REDESIGN FLAG:
// the original source combines the four checks with logical "and"; the
// spec requires "or" so that exceeding any single dimension rejects.
func (s *Scheduler) checkTenantConstraints(tenant domain.Tenant, reservation domain.Reservation) error {
	constraint, ok := s.infrastructure.Constraints[tenant.Name]
	if !ok {
		return nil
	}
	cpu, ram, accelerators, block := reservation.Extract()
	if cpu > constraint.TotalCPUComputeLimit() ||
		ram > constraint.TotalRAMComputeLimit() ||
		accelerators > constraint.TotalAcceleratorComputeLimit() ||
		block > constraint.TotalBlockStorageLimit() {
		return errors.New("scheduler: claim exceeds tenant limits")
	}
	return nil
}

// overlappingUsage sums the four resource dimensions across every
// existing reservation claim for which overlaps(c) is true.
func (s *Scheduler) overlappingUsage(self domain.Claim, overlaps func(domain.Claim) bool) (cpu, ram, accelerators, block int) {
	for _, c := range s.infrastructure.Claims {
		if c.Reservation == nil || c.Name == self.Name {
			continue
		}
		if !overlaps(c) {
			continue
		}
		cCPU, cRAM, cAccel, cBlock := c.Reservation.Extract()
		cpu += cCPU
		ram += cRAM
		accelerators += cAccel
		block += cBlock
	}
	return cpu, ram, accelerators, block
}

// fixedStartOverlap mirrors the original's fixed-start overlap predicate:
// a claim c overlaps reservation's [start, end) when c starts before
// reservation ends and c ends after reservation starts, treating absent
// bounds as open.
func fixedStartOverlap(c, reservation domain.Claim) bool {
	startsBefore := c.Start == nil || reservation.End == nil || c.Start.Before(*reservation.End)
	endsAfter := c.End == nil || reservation.Start == nil || c.End.After(*reservation.Start)
	return startsBefore && endsAfter
}

// dynamicStartOverlap mirrors the original's dynamic-start overlap
// predicate, evaluated against a candidate probe time t rather than a
// fixed reservation start.
func dynamicStartOverlap(c, reservation domain.Claim, t time.Time) bool {
	startsBefore := c.Start == nil || reservation.End == nil || c.Start.Before(*reservation.End)
	endsAfter := c.End == nil || c.End.After(t)
	return startsBefore && endsAfter
}

// dynamicStart scans [now, now+PlanningWindow] in PlanningInterval steps
// for the earliest candidate at which every resource dimension fits.
func (s *Scheduler) dynamicStart(claim domain.Claim, now time.Time) (time.Time, bool) {
	reservation := *claim.Reservation
	cpuTotal, ramTotal, acceleratorTotal, blockTotal := s.infrastructure.Limits(reservation.HSNOnly)
	cpuClaim, ramClaim, acceleratorClaim, blockClaim := reservation.Extract()

	deadline := now.Add(s.cfg.PlanningWindow)
	for t := now; t.Before(deadline); t = t.Add(s.cfg.PlanningInterval) {
		cpuUsed, ramUsed, acceleratorUsed, blockUsed := s.overlappingUsage(claim, func(c domain.Claim) bool {
			return dynamicStartOverlap(c, claim, t)
		})
		if cpuClaim <= cpuTotal-cpuUsed &&
			ramClaim <= ramTotal-ramUsed &&
			acceleratorClaim <= acceleratorTotal-acceleratorUsed &&
			blockClaim <= blockTotal-blockUsed {
			return t, true
		}
	}
	return time.Time{}, false
}

// commit appends claim to the infrastructure's claim list. This is the
// only mutation the scheduler performs; everything before it is a
// read-only evaluation pass.
func (s *Scheduler) commit(claim domain.Claim, tenant domain.Tenant) {
	s.infrastructure.Claims = append(s.infrastructure.Claims, claim)
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrNoStartDate):
		return "no_start_date"
	case errors.Is(err, ErrUnrealisable):
		return "unrealisable"
	default:
		return "capacity"
	}
}
