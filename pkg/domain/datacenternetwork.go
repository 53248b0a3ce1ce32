package domain

import "fmt"

// NetworkMember is anything a DataCenterNetwork can hold as a graph node:
// a network device or a computer.
type NetworkMember interface {
	Key() string
}

// DataCenterNetwork is an undirected graph of network devices and
// computers, grounded on the original implementation's use of a generic
// graph library (networkx) to represent physical topology. No graph
// library appears anywhere in the retrieved example pack, so the
// adjacency structure below is a minimal hand-rolled stand-in rather than
// an adopted third-party dependency (see DESIGN.md).
type DataCenterNetwork struct {
	Name        string
	NetworkType NetworkType
	HSN         bool

	nodes     map[string]NetworkMember
	adjacency map[string]map[string]struct{}
	ports     map[string]*Port // port owner key -> first free/connected port lookup uses closures, not stored here
}

// NewDataCenterNetwork creates an empty network.
func NewDataCenterNetwork(name string, networkType NetworkType, highSpeed bool) *DataCenterNetwork {
	return &DataCenterNetwork{
		Name:        name,
		NetworkType: networkType,
		HSN:         highSpeed,
		nodes:       make(map[string]NetworkMember),
		adjacency:   make(map[string]map[string]struct{}),
	}
}

// Key identifies a DataCenterNetwork for use as a Maintenance target.
func (n *DataCenterNetwork) Key() string {
	return n.Name
}

// Add adds a device or computer to the network as an unconnected node.
func (n *DataCenterNetwork) Add(member NetworkMember) {
	n.nodes[member.Key()] = member
	if _, ok := n.adjacency[member.Key()]; !ok {
		n.adjacency[member.Key()] = make(map[string]struct{})
	}
}

// AddMultiple adds every member to the network.
func (n *DataCenterNetwork) AddMultiple(members []NetworkMember) {
	for _, m := range members {
		n.Add(m)
	}
}

// nicLister is satisfied by Computer and, through embedding, by Server
// and Module.
type nicLister interface {
	NICList() []NIC
}

// portsFor returns the port slice a Link/Unlink should search, honoring
// the original's rule that a Switch prefers its uplink ports over its
// regular ports when uplinks exist.
func portsFor(member NetworkMember) []Port {
	switch v := member.(type) {
	case *Switch:
		if len(v.UplinkPorts) > 0 {
			return v.UplinkPorts
		}
		return v.Ports
	case *NIC:
		return v.Ports
	case *Router:
		return v.Ports
	case *Firewall:
		return v.Ports
	case nicLister:
		var ports []Port
		for _, nic := range v.NICList() {
			ports = append(ports, nic.Ports...)
		}
		return ports
	default:
		return nil
	}
}

// Link connects left and right via their first free port each, marking
// both ports connected and up.
func (n *DataCenterNetwork) Link(left, right NetworkMember) error {
	leftPort := firstFreePort(portsFor(left))
	if leftPort == nil {
		return fmt.Errorf("domain: no free ports available on %s", left.Key())
	}
	rightPort := firstFreePort(portsFor(right))
	if rightPort == nil {
		return fmt.Errorf("domain: no free ports available on %s", right.Key())
	}
	leftPort.Connected = true
	rightPort.Connected = true
	leftPort.Status = StatusUp
	rightPort.Status = StatusUp

	n.Add(left)
	n.Add(right)
	n.adjacency[left.Key()][right.Key()] = struct{}{}
	n.adjacency[right.Key()][left.Key()] = struct{}{}
	return nil
}

// Unlink disconnects left and right, marking their connected ports free
// and down.
func (n *DataCenterNetwork) Unlink(left, right NetworkMember) error {
	if _, ok := n.adjacency[left.Key()][right.Key()]; !ok {
		return fmt.Errorf("domain: %s and %s are not linked", left.Key(), right.Key())
	}
	leftPort := firstConnectedPort(portsFor(left))
	rightPort := firstConnectedPort(portsFor(right))
	if leftPort == nil || rightPort == nil {
		return fmt.Errorf("domain: could not determine connected ports for %s and %s", left.Key(), right.Key())
	}
	leftPort.Connected = false
	leftPort.Status = StatusDown
	rightPort.Connected = false
	rightPort.Status = StatusDown

	delete(n.adjacency[left.Key()], right.Key())
	delete(n.adjacency[right.Key()], left.Key())
	return nil
}

// Nodes returns every member currently in the network.
func (n *DataCenterNetwork) Nodes() []NetworkMember {
	out := make([]NetworkMember, 0, len(n.nodes))
	for _, m := range n.nodes {
		out = append(out, m)
	}
	return out
}

// Computers returns every Server or Blade member in the network, mirroring
// the original implementation's DataCenterNetwork.computers(), which is
// the basis for LogicalInfrastructure's compute/storage totals: a Blade's
// capacity comes from the Modules installed in its Nodes, so callers must
// type-switch to reach it.
func (n *DataCenterNetwork) Computers() []any {
	var out []any
	for _, m := range n.nodes {
		switch m.(type) {
		case *Server, *Blade:
			out = append(out, m)
		}
	}
	return out
}

// IsHSN reports whether this network is flagged as a high speed network.
func (n *DataCenterNetwork) IsHSN() bool {
	return n.HSN
}

// Topology determines whether the network's current link structure forms
// a tree (edges == nodes-1, fully connected, no cycles).
func (n *DataCenterNetwork) Topology() NetworkTopology {
	if len(n.nodes) == 0 {
		return TopologyUndefined
	}
	edgeCount := 0
	for _, neighbors := range n.adjacency {
		edgeCount += len(neighbors)
	}
	edgeCount /= 2
	if edgeCount == len(n.nodes)-1 && n.isConnected() {
		return TopologyTree
	}
	return TopologyUndefined
}

func (n *DataCenterNetwork) isConnected() bool {
	if len(n.nodes) == 0 {
		return true
	}
	var start string
	for k := range n.nodes {
		start = k
		break
	}
	visited := map[string]struct{}{start: {}}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for neighbor := range n.adjacency[cur] {
			if _, ok := visited[neighbor]; !ok {
				visited[neighbor] = struct{}{}
				stack = append(stack, neighbor)
			}
		}
	}
	return len(visited) == len(n.nodes)
}
