package domain

// Node is a physical container that hosts one or more compute Modules.
type Node struct {
	Hardware
	Name    string
	Modules []Module
	Status  DeviceStatus
}

// Blade is a physical container that hosts one or more Nodes.
type Blade struct {
	Hardware
	Name   string
	Nodes  []Node
	Status DeviceStatus
}

// Chassis hosts Servers and/or Blades.
type Chassis struct {
	Hardware
	Name    string
	Servers []Server
	Blades  []Blade
}

// Cabinet is a physical rack that hosts Servers, Chassis, and Switches.
type Cabinet struct {
	Hardware
	Name     string
	Servers  []Server
	Chassis  []Chassis
	Switches []Switch
}

// RemoveServer removes server from the cabinet by hardware key, reporting
// whether it was found.
func (c *Cabinet) RemoveServer(key string) bool {
	for i, s := range c.Servers {
		if s.Key() == key {
			c.Servers = append(c.Servers[:i], c.Servers[i+1:]...)
			return true
		}
	}
	return false
}

// MoveServer moves a server identified by key from one cabinet to
// another, mirroring the original implementation's move_server helper.
func MoveServer(key string, from, to *Cabinet) error {
	for i, s := range from.Servers {
		if s.Key() == key {
			to.Servers = append(to.Servers, s)
			from.Servers = append(from.Servers[:i], from.Servers[i+1:]...)
			return nil
		}
	}
	return &NotInstalledError{Kind: "server", Key: key}
}

// MoveBlade moves a blade identified by key from one chassis to another.
func MoveBlade(key string, from, to *Chassis) error {
	for i, b := range from.Blades {
		if b.Key() == key {
			to.Blades = append(to.Blades, b)
			from.Blades = append(from.Blades[:i], from.Blades[i+1:]...)
			return nil
		}
	}
	return &NotInstalledError{Kind: "blade", Key: key}
}

// NotInstalledError reports an attempt to move or remove hardware that is
// not installed where the caller expected it.
type NotInstalledError struct {
	Kind string
	Key  string
}

func (e *NotInstalledError) Error() string {
	return "domain: " + e.Kind + " " + e.Key + " is not installed"
}
