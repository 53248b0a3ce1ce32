// Package scheduler admits or rejects reservation claims against a
// LogicalInfrastructure replica without mutating state until commit, so
// replicas holding identical state reach identical decisions.
package scheduler
