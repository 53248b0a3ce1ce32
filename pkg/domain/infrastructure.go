package domain

// LogicalInfrastructure is the top-level view of everything HORAO
// manages: a set of data centers, each with its associated networks, the
// per-tenant constraints bounding them, and the claims held against them.
type LogicalInfrastructure struct {
	DataCenters map[*DataCenter][]*DataCenterNetwork
	Constraints map[string]Constraint // keyed by Tenant.Name
	Claims      []Claim
}

// NewLogicalInfrastructure creates an empty infrastructure.
func NewLogicalInfrastructure() *LogicalInfrastructure {
	return &LogicalInfrastructure{
		DataCenters: make(map[*DataCenter][]*DataCenterNetwork),
		Constraints: make(map[string]Constraint),
	}
}

// TotalCompute sums the compute capacity reachable through every data
// network (optionally restricted to high speed networks), one Compute
// entry per Server and per Node installed in a Blade. We assume a compute
// node's disks count toward storage too, and that a node within a blade
// never mixes module types.
func (li *LogicalInfrastructure) TotalCompute(hsnOnly bool) []Compute {
	var compute []Compute
	for _, networks := range li.DataCenters {
		for _, network := range dataNetworks(networks, hsnOnly) {
			for _, member := range network.Computers() {
				switch v := member.(type) {
				case *Server:
					compute = append(compute, NewCompute(v.TotalCores(), v.TotalRAMGB(), v.HasAccelerator(), 1))
				case *Blade:
					for _, node := range v.Nodes {
						if len(node.Modules) == 0 {
							continue
						}
						m := node.Modules[0]
						compute = append(compute, NewCompute(m.TotalCores(), m.TotalRAMGB(), m.HasAccelerator(), len(node.Modules)))
					}
				}
			}
		}
	}
	return compute
}

// TotalStorage sums the block storage capacity reachable through every
// data network (optionally restricted to high speed networks), one
// Storage entry per Server and per Node installed in a Blade.
func (li *LogicalInfrastructure) TotalStorage(hsnOnly bool) []Storage {
	var storage []Storage
	for _, networks := range li.DataCenters {
		for _, network := range dataNetworks(networks, hsnOnly) {
			for _, member := range network.Computers() {
				switch v := member.(type) {
				case *Server:
					storage = append(storage, NewStorage(v.TotalDiskGB(), StorageBlock, StorageHot))
				case *Blade:
					for _, node := range v.Nodes {
						total := 0
						for _, m := range node.Modules {
							total += m.TotalDiskGB()
						}
						storage = append(storage, NewStorage(total, StorageBlock, StorageHot))
					}
				}
			}
		}
	}
	return storage
}

// Limits sums TotalCompute/TotalStorage into the four dimensions the
// scheduler checks admission against: total CPU cores, total RAM (GB),
// total accelerator-bearing compute units, and total block storage (GB).
func (li *LogicalInfrastructure) Limits(hsnOnly bool) (cpu, ramGB, accelerators, blockStorageGB int) {
	for _, c := range li.TotalCompute(hsnOnly) {
		cpu += c.CPU * c.Amount
		ramGB += c.RAM * c.Amount
		if c.Accelerator {
			accelerators += c.Amount
		}
	}
	for _, s := range li.TotalStorage(hsnOnly) {
		if s.StorageType == StorageBlock {
			blockStorageGB += s.Amount
		}
	}
	return cpu, ramGB, accelerators, blockStorageGB
}

func dataNetworks(networks []*DataCenterNetwork, hsnOnly bool) []*DataCenterNetwork {
	var out []*DataCenterNetwork
	for _, n := range networks {
		if n.NetworkType != NetworkData {
			continue
		}
		if hsnOnly && !n.HSN {
			continue
		}
		out = append(out, n)
	}
	return out
}
