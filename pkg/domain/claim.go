package domain

import "time"

// Claim is something held against the logical infrastructure: either a
// Maintenance window or a Reservation of resources. Modeled as a tagged
// union rather than the original's abstract base class, since Go has no
// class hierarchy to lean on here.
type Claim struct {
	Name  string
	Start *time.Time // nil means "as soon as possible"
	End   *time.Time // nil means "indefinite"

	Maintenance *Maintenance
	Reservation *Reservation
}

// Overlaps reports whether this claim's [Start, End) window intersects
// other's. A nil Start is treated as negative infinity, a nil End as
// positive infinity.
func (c Claim) Overlaps(other Claim) bool {
	cStart, cEnd := c.Start, c.End
	oStart, oEnd := other.Start, other.End
	if cEnd != nil && oStart != nil && !cEnd.After(*oStart) {
		return false
	}
	if oEnd != nil && cStart != nil && !oEnd.After(*cStart) {
		return false
	}
	return true
}

// MaintenanceTarget is any object a maintenance window can be declared
// against.
type MaintenanceTarget interface {
	Key() string
}

// Maintenance represents a maintenance event affecting one or more
// targets in the infrastructure.
type Maintenance struct {
	Reason   string
	Operator string // name of the SecurityEngineer/SystemEngineer/NetworkEngineer requesting it
	Target   []MaintenanceTarget
}

// Reservation represents a logical reservation of resources on behalf of
// a tenant. Resources holds a heterogeneous mix of Compute and Storage
// values; Go has no common supertype for them beyond the shared
// ResourceDefinition field, so Extract recovers the concrete type itself.
type Reservation struct {
	EndUser   string // name of the Delegate/TenantOwner the reservation is for
	Resources []any
	HSNOnly   bool
}

// Extract totals the compute CPU, RAM (GB), accelerator count, and block
// storage (GB) requested by the reservation's resources.
func (r Reservation) Extract() (cpu, ramGB, accelerators, blockStorageGB int) {
	for _, res := range r.Resources {
		switch v := res.(type) {
		case Compute:
			cpu += v.CPU * v.Amount
			ramGB += v.RAM * v.Amount
			if v.Accelerator {
				accelerators += v.Amount
			}
		case Storage:
			if v.StorageType == StorageBlock {
				blockStorageGB += v.Amount
			}
		}
	}
	return cpu, ramGB, accelerators, blockStorageGB
}
