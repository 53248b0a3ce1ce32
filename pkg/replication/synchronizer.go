// Package replication implements horao's peer synchronizer: it propagates
// CRDT deltas to configured peers on a time- or change-count trigger, and
// applies deltas received from peers back into the local replica.
package replication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/horao-project/horao/pkg/crdt"
	"github.com/horao-project/horao/pkg/domain"
	"github.com/horao-project/horao/pkg/log"
	"github.com/horao-project/horao/pkg/metrics"
	"github.com/horao-project/horao/pkg/storage"
	"github.com/rs/zerolog"
)

const lastSyncKey = "last_sync"

// Synchronizer propagates changes to a fixed set of data centers to every
// configured peer, subject to the time/change-count trigger predicate in
// spec.md's §4.7.
type Synchronizer struct {
	cfg         Config
	store       storage.Store
	client      *http.Client
	logger      zerolog.Logger
	dataCenters map[string]*domain.DataCenter

	mu           sync.Mutex
	changes      int
	applyingPeer bool
}

// New creates a Synchronizer with no watched data centers; call Watch to
// register each one the replica owns.
func New(cfg Config, store storage.Store) *Synchronizer {
	return &Synchronizer{
		cfg:         cfg,
		store:       store,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      log.WithComponent("replication"),
		dataCenters: make(map[string]*domain.DataCenter),
	}
}

// Watch registers dc (keyed by name) for replication and adds the
// synchronizer's change-counting listener to it, matching the original's
// `dc.add_listeners(self.synchronize)` at construction time — except here
// a data center can be added after construction, e.g. by inventory
// reconciliation running after the replica starts.
func (s *Synchronizer) Watch(name string, dc *domain.DataCenter) {
	s.mu.Lock()
	s.dataCenters[name] = dc
	s.mu.Unlock()
	dc.AddListener(s.onChange)
}

// onChange is registered on every data center; it counts locally
// originated changes but is a no-op while a peer document is being
// applied, so receiving updates never re-arms our own trigger.
func (s *Synchronizer) onChange(crdt.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyingPeer {
		return
	}
	s.changes++
}

// shouldSync implements the trigger predicate: sync now if the time since
// last_sync meets or exceeds SyncDelta, or the change count meets or
// exceeds MaxChanges.
func (s *Synchronizer) shouldSync(now time.Time) bool {
	last, ok := s.lastSync()
	if !ok || now.Sub(last) >= s.cfg.SyncDelta {
		return true
	}
	s.mu.Lock()
	changes := s.changes
	s.mu.Unlock()
	return changes >= s.cfg.MaxChanges
}

func (s *Synchronizer) lastSync() (time.Time, bool) {
	raw, err := s.store.Get(lastSyncKey)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Synchronize runs one synchronization round if the trigger predicate is
// met. It returns the sync timestamp when every peer accepted the round,
// and nil without an error if backpressure held it off, no peers are
// configured, or only some peers failed. An error is returned when every
// peer in a triggered round failed, or when the envelope cannot be built
// or last_sync cannot be persisted; the caller should rely on the next
// trigger to retry rather than retrying synchronously itself.
func (s *Synchronizer) Synchronize(ctx context.Context, now time.Time) (*time.Time, error) {
	if len(s.cfg.Peers) == 0 {
		return nil, nil
	}
	if !s.shouldSync(now) {
		return nil, nil
	}

	s.mu.Lock()
	dataCenters := make(map[string]*domain.DataCenter, len(s.dataCenters))
	for name, dc := range s.dataCenters {
		dataCenters[name] = dc
	}
	s.mu.Unlock()

	envelope, err := BuildEnvelope(s.cfg.HostID, dataCenters)
	if err != nil {
		return nil, fmt.Errorf("replication: build envelope: %w", err)
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("replication: marshal envelope: %w", err)
	}

	var failures int
	for _, peer := range s.cfg.Peers {
		timer := metrics.NewTimer()
		err := s.syncOne(ctx, peer, body)
		timer.ObserveDurationVec(metrics.SyncRoundDuration, peer)
		if err != nil {
			failures++
			metrics.SyncRoundsTotal.WithLabelValues(peer, "failure").Inc()
			s.logger.Error().Str("peer", peer).Err(err).Msg("synchronize: peer unreachable, will retry next trigger")
			continue
		}
		metrics.SyncRoundsTotal.WithLabelValues(peer, "success").Inc()
	}

	if failures == len(s.cfg.Peers) {
		return nil, fmt.Errorf("replication: all %d peers failed", failures)
	}
	if failures > 0 {
		// Partial success: per spec, last_sync only advances on full
		// success, so the failed peers are retried on the next trigger.
		return nil, nil
	}

	if err := s.store.Set(lastSyncKey, []byte(now.Format(time.RFC3339Nano))); err != nil {
		return nil, fmt.Errorf("replication: persist last_sync: %w", err)
	}
	s.mu.Lock()
	s.changes = 0
	s.mu.Unlock()
	return &now, nil
}

func (s *Synchronizer) syncOne(ctx context.Context, peer string, body []byte) error {
	token, err := signToken(s.cfg.HostID, s.cfg.PeerSecret)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer+"/synchronize", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Peer", "true")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("peer returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Receive verifies tokenString, decodes body as an Envelope, and applies
// it to the local replica with listener suppression, so accepting a
// peer's document never re-arms this replica's own sync trigger.
func (s *Synchronizer) Receive(tokenString string, body []byte) error {
	if _, err := verifyToken(tokenString, s.cfg.PeerSecret); err != nil {
		return err
	}
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("replication: decode envelope: %w", err)
	}

	s.mu.Lock()
	s.applyingPeer = true
	dataCenters := make(map[string]*domain.DataCenter, len(s.dataCenters))
	for name, dc := range s.dataCenters {
		dataCenters[name] = dc
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.applyingPeer = false
		s.mu.Unlock()
	}()

	return Apply(dataCenters, &envelope)
}
