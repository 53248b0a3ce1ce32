package domain

import (
	"fmt"

	"github.com/horao-project/horao/pkg/clock"
	"github.com/horao-project/horao/pkg/crdt"
)

// DataCenter is a physical site made up of numbered rows, each row a CRDT
// list of Cabinets. Grounded on the original implementation's DataCenter,
// which stores rows as a dict of row number to a LastWriterWinsMap of
// cabinets; here each row is a crdt.List[Cabinet] so cabinet order within
// a row and concurrent cabinet edits both converge.
type DataCenter struct {
	Name      string
	clock     *clock.Scalar
	rows      map[int]*crdt.List[Cabinet]
	listeners []crdt.Listener
}

// NewDataCenter creates an empty data center sharing the given clock.
func NewDataCenter(name string, c *clock.Scalar) *DataCenter {
	return &DataCenter{Name: name, clock: c, rows: make(map[int]*crdt.List[Cabinet])}
}

// Key identifies a DataCenter for use as a Maintenance target.
func (d *DataCenter) Key() string {
	return d.Name
}

// AddListener registers a callback invoked whenever any row's cabinet
// list is mutated, including rows created after this call. The peer
// synchronizer (pkg/replication) registers one such listener per data
// center to drive its change counter.
func (d *DataCenter) AddListener(l crdt.Listener) {
	d.listeners = append(d.listeners, l)
	for _, row := range d.rows {
		row.AddListener(l)
	}
}

// ApplyRow applies a peer-originated update to the given row, creating
// the row's backing CRDT list first if this replica has never seen it.
func (d *DataCenter) ApplyRow(row int, u crdt.Update) error {
	return d.row(row).Apply(u)
}

// RowCRDTs exposes the CRDT list backing every row that currently exists,
// keyed by row number, for the peer synchronizer to replicate. Rows
// created after this call are not included; callers needing a live view
// should call it again at sync time.
func (d *DataCenter) RowCRDTs() map[int]crdt.Replica {
	out := make(map[int]crdt.Replica, len(d.rows))
	for row, l := range d.rows {
		out[row] = l
	}
	return out
}

// row returns the CRDT list backing a row, creating it on first use.
func (d *DataCenter) row(row int) *crdt.List[Cabinet] {
	l, ok := d.rows[row]
	if !ok {
		l = crdt.NewList[Cabinet](d.clock)
		for _, listener := range d.listeners {
			l.AddListener(listener)
		}
		d.rows[row] = l
	}
	return l
}

// AddCabinet appends cabinet to the given row.
func (d *DataCenter) AddCabinet(row int, cabinet Cabinet) (crdt.Update, error) {
	return d.row(row).Append(cabinet)
}

// Rows returns the current contents of every row, keyed by row number.
func (d *DataCenter) Rows() (map[int][]Cabinet, error) {
	out := make(map[int][]Cabinet, len(d.rows))
	for n, l := range d.rows {
		cabinets, err := l.Read()
		if err != nil {
			return nil, fmt.Errorf("domain: data center %s: row %d: %w", d.Name, n, err)
		}
		out[n] = cabinets
	}
	return out, nil
}

// Cabinets returns every cabinet across every row, in no particular order.
func (d *DataCenter) Cabinets() ([]Cabinet, error) {
	rows, err := d.Rows()
	if err != nil {
		return nil, err
	}
	var out []Cabinet
	for _, cabinets := range rows {
		out = append(out, cabinets...)
	}
	return out, nil
}

// FindCabinet locates a cabinet by hardware key across all rows. The
// returned value is a snapshot: mutate it and pass it to replaceCabinet
// (or call one of DataCenter's mutating helpers) to persist changes back
// into the CRDT list, since List.Read decodes a fresh copy on every call.
func (d *DataCenter) FindCabinet(key string) (Cabinet, error) {
	cabinets, err := d.Cabinets()
	if err != nil {
		return Cabinet{}, err
	}
	for _, c := range cabinets {
		if c.Key() == key {
			return c, nil
		}
	}
	return Cabinet{}, &NotInstalledError{Kind: "cabinet", Key: key}
}

// cabinetLocation is a cabinet paired with the row and position it was
// read from, used to write a mutated copy back into its CRDT list.
type cabinetLocation struct {
	row      int
	position int
	cabinet  Cabinet
}

func (d *DataCenter) locateCabinet(key string) (cabinetLocation, error) {
	for row, l := range d.rows {
		cabinets, err := l.Read()
		if err != nil {
			return cabinetLocation{}, fmt.Errorf("domain: data center %s: row %d: %w", d.Name, row, err)
		}
		for pos, c := range cabinets {
			if c.Key() == key {
				return cabinetLocation{row: row, position: pos, cabinet: c}, nil
			}
		}
	}
	return cabinetLocation{}, &NotInstalledError{Kind: "cabinet", Key: key}
}

// replaceCabinet overwrites the cabinet at loc's row/position with
// cabinet, persisting a mutation made to a snapshot returned by
// locateCabinet or FindCabinet.
func (d *DataCenter) replaceCabinet(loc cabinetLocation, cabinet Cabinet) error {
	_, err := d.row(loc.row).Replace(loc.position, cabinet)
	return err
}

// MoveServer moves the server identified by serverKey from the cabinet
// identified by fromKey to the cabinet identified by toKey, mirroring the
// original implementation's DataCenter.move_server.
func (d *DataCenter) MoveServer(serverKey, fromKey, toKey string) error {
	fromLoc, err := d.locateCabinet(fromKey)
	if err != nil {
		return err
	}
	toLoc, err := d.locateCabinet(toKey)
	if err != nil {
		return err
	}
	if err := MoveServer(serverKey, &fromLoc.cabinet, &toLoc.cabinet); err != nil {
		return err
	}
	if err := d.replaceCabinet(fromLoc, fromLoc.cabinet); err != nil {
		return err
	}
	return d.replaceCabinet(toLoc, toLoc.cabinet)
}

// locateChassis finds a chassis by key across every cabinet, returning
// its owning cabinet's location alongside its index within that cabinet.
func (d *DataCenter) locateChassis(key string) (cabinetLocation, int, error) {
	for row, l := range d.rows {
		cabinets, err := l.Read()
		if err != nil {
			return cabinetLocation{}, 0, fmt.Errorf("domain: data center %s: row %d: %w", d.Name, row, err)
		}
		for pos, c := range cabinets {
			for ci, ch := range c.Chassis {
				if ch.Key() == key {
					return cabinetLocation{row: row, position: pos, cabinet: c}, ci, nil
				}
			}
		}
	}
	return cabinetLocation{}, 0, &NotInstalledError{Kind: "chassis", Key: key}
}

// MoveChassisServer moves a server between two chassis, searched for
// across every cabinet in the data center.
func (d *DataCenter) MoveChassisServer(serverKey, fromChassisKey, toChassisKey string) error {
	fromLoc, fromIdx, err := d.locateChassis(fromChassisKey)
	if err != nil {
		return err
	}
	toLoc, toIdx, err := d.locateChassis(toChassisKey)
	if err != nil {
		return err
	}

	from := &fromLoc.cabinet.Chassis[fromIdx]
	var to *Chassis
	if fromLoc.row == toLoc.row && fromLoc.position == toLoc.position {
		to = &fromLoc.cabinet.Chassis[toIdx]
	} else {
		to = &toLoc.cabinet.Chassis[toIdx]
	}

	found := false
	for i, s := range from.Servers {
		if s.Key() == serverKey {
			to.Servers = append(to.Servers, s)
			from.Servers = append(from.Servers[:i], from.Servers[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return &NotInstalledError{Kind: "server", Key: serverKey}
	}

	if err := d.replaceCabinet(fromLoc, fromLoc.cabinet); err != nil {
		return err
	}
	if fromLoc.row == toLoc.row && fromLoc.position == toLoc.position {
		return nil
	}
	return d.replaceCabinet(toLoc, toLoc.cabinet)
}

// MoveBlade moves a blade between two chassis found across the data
// center's cabinets.
func (d *DataCenter) MoveBlade(bladeKey, fromChassisKey, toChassisKey string) error {
	fromLoc, fromIdx, err := d.locateChassis(fromChassisKey)
	if err != nil {
		return err
	}
	toLoc, toIdx, err := d.locateChassis(toChassisKey)
	if err != nil {
		return err
	}

	from := &fromLoc.cabinet.Chassis[fromIdx]
	var to *Chassis
	sameCabinet := fromLoc.row == toLoc.row && fromLoc.position == toLoc.position
	if sameCabinet {
		to = &fromLoc.cabinet.Chassis[toIdx]
	} else {
		to = &toLoc.cabinet.Chassis[toIdx]
	}

	if err := MoveBlade(bladeKey, from, to); err != nil {
		return err
	}

	if err := d.replaceCabinet(fromLoc, fromLoc.cabinet); err != nil {
		return err
	}
	if sameCabinet {
		return nil
	}
	return d.replaceCabinet(toLoc, toLoc.cabinet)
}

// SwapDisk replaces the disk at the given index on the server identified
// by serverKey with replacement, returning the disk that was removed.
func (d *DataCenter) SwapDisk(serverKey string, index int, replacement Disk) (*Disk, error) {
	for row, l := range d.rows {
		cabinets, err := l.Read()
		if err != nil {
			return nil, fmt.Errorf("domain: data center %s: row %d: %w", d.Name, row, err)
		}
		for pos, c := range cabinets {
			for _, s := range c.Servers {
				if s.Key() == serverKey {
					return d.swapDiskInCabinet(cabinetLocation{row: row, position: pos, cabinet: c}, serverKey, index, replacement)
				}
			}
		}
	}
	return nil, &NotInstalledError{Kind: "server", Key: serverKey}
}

func (d *DataCenter) swapDiskInCabinet(loc cabinetLocation, serverKey string, index int, replacement Disk) (*Disk, error) {
	for si := range loc.cabinet.Servers {
		if loc.cabinet.Servers[si].Key() != serverKey {
			continue
		}
		srv := &loc.cabinet.Servers[si]
		if index < 0 || index >= len(srv.Disks) {
			return nil, fmt.Errorf("domain: server %s has no disk at index %d", serverKey, index)
		}
		old := srv.Disks[index]
		srv.Disks[index] = replacement
		if err := d.replaceCabinet(loc, loc.cabinet); err != nil {
			return nil, err
		}
		return &old, nil
	}
	return nil, &NotInstalledError{Kind: "server", Key: serverKey}
}

// FetchServerNIC returns a copy of the NIC at the given index on the
// server identified by serverKey.
func (d *DataCenter) FetchServerNIC(serverKey string, index int) (NIC, error) {
	cabinets, err := d.Cabinets()
	if err != nil {
		return NIC{}, err
	}
	for c := range cabinets {
		for si := range cabinets[c].Servers {
			if cabinets[c].Servers[si].Key() != serverKey {
				continue
			}
			srv := &cabinets[c].Servers[si]
			if index < 0 || index >= len(srv.NICs) {
				return NIC{}, fmt.Errorf("domain: server %s has no NIC at index %d", serverKey, index)
			}
			return srv.NICs[index], nil
		}
	}
	return NIC{}, &NotInstalledError{Kind: "server", Key: serverKey}
}
