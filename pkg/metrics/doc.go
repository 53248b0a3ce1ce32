/*
Package metrics provides Prometheus metrics collection and exposition for
horao.

The metrics package defines and registers all horao metrics using the
Prometheus client library, providing observability into CRDT convergence,
peer synchronization health, and scheduler admission behavior. Metrics are
exposed via an HTTP endpoint for scraping by Prometheus servers.

# Metrics Catalog

CRDT Metrics:

horao_crdt_updates_total{crdt_type, outcome}:
  - Type: Counter
  - Description: Total CRDT updates applied, by crdt type (orset, lww,
    mvregister, lwwmap, list) and outcome (applied, rejected)

horao_crdt_merge_duration_seconds:
  - Type: Histogram
  - Description: Time to merge a remote update set into local state

horao_merkle_diverging_leaves:
  - Type: Histogram
  - Description: Number of diverging merkle leaves found during a tree diff

Synchronization Metrics:

horao_sync_rounds_total{peer, outcome}:
  - Type: Counter
  - Description: Total synchronization rounds against a peer, by outcome
    (success, failure)

horao_sync_round_duration_seconds{peer}:
  - Type: Histogram
  - Description: Duration of a synchronize round against a peer

horao_sync_pending_changes{peer}:
  - Type: Gauge
  - Description: Unsynchronized change count observed for a peer since its
    last successful round

Scheduler Metrics:

horao_scheduler_decisions_total{verdict, reason}:
  - Type: Counter
  - Description: Total admission decisions, by verdict (admitted,
    rejected) and reason (capacity, covering both tenant-limit and
    infrastructure-capacity rejections; no_start_date; unrealisable; empty
    for admissions)

horao_scheduler_decision_duration_seconds:
  - Type: Histogram
  - Description: Time to evaluate a single claim admission decision

horao_infrastructure_capacity{resource, state}:
  - Type: Gauge
  - Description: Observed infrastructure capacity, by resource kind
    (cpu, ram, disk, accelerator) and state (total, claimed)

# Usage

	timer := metrics.NewTimer()
	start, err := s.schedule(claim, tenant, now)
	timer.ObserveDuration(metrics.SchedulerDecisionDuration)
	if err != nil {
		metrics.SchedulerDecisionsTotal.WithLabelValues("rejected", "capacity").Inc()
	}

	http.Handle("/metrics", metrics.Handler())

# Design Patterns

Package Init Registration:
  - All metrics registered in init() via MustRegister
  - Ensures metrics available before first use

Label Discipline:
  - Labels are bounded (crdt type, verdict, reason, peer id) and never
    carry unbounded identifiers such as claim or tenant IDs
*/
package metrics
