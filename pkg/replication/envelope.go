package replication

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/horao-project/horao/pkg/crdt"
	"github.com/horao-project/horao/pkg/domain"
)

// Envelope is the JSON document POSTed to a peer's /synchronize endpoint:
// the sender's replica identity plus every CRDT update the receiver might
// be missing, keyed by data center name and row number. The persistence
// codec for the rest of the domain model (claims, tenants, constraints)
// is an out-of-scope external collaborator; this envelope only carries
// the CRDT deltas the spec requires sync to propagate.
type Envelope struct {
	Peer    string                                 `json:"peer"`
	Updates map[string]map[string][]json.RawMessage `json:"updates"`
}

// BuildEnvelope packs the full update history of every row in every named
// data center into an Envelope.
func BuildEnvelope(hostID string, dataCenters map[string]*domain.DataCenter) (*Envelope, error) {
	env := &Envelope{Peer: hostID, Updates: make(map[string]map[string][]json.RawMessage)}
	for name, dc := range dataCenters {
		rows := make(map[string][]json.RawMessage)
		for row, replica := range dc.RowCRDTs() {
			packed, err := packHistory(replica)
			if err != nil {
				return nil, fmt.Errorf("replication: pack %s row %d: %w", name, row, err)
			}
			rows[strconv.Itoa(row)] = packed
		}
		env.Updates[name] = rows
	}
	return env, nil
}

func packHistory(replica crdt.Replica) ([]json.RawMessage, error) {
	history := replica.History()
	out := make([]json.RawMessage, 0, len(history))
	for _, u := range history {
		data, err := u.Pack()
		if err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(data))
	}
	return out, nil
}

// Apply merges every update in env into the corresponding data center
// row, creating rows this replica has not seen before. It is the
// receiver-side counterpart of BuildEnvelope.
func Apply(dataCenters map[string]*domain.DataCenter, env *Envelope) error {
	for name, rows := range env.Updates {
		dc, ok := dataCenters[name]
		if !ok {
			return fmt.Errorf("replication: unknown data center %q in sync envelope", name)
		}
		rowNumbers := make([]string, 0, len(rows))
		for row := range rows {
			rowNumbers = append(rowNumbers, row)
		}
		sort.Strings(rowNumbers)
		for _, rowKey := range rowNumbers {
			row, err := strconv.Atoi(rowKey)
			if err != nil {
				return fmt.Errorf("replication: data center %q: bad row key %q: %w", name, rowKey, err)
			}
			for _, raw := range rows[rowKey] {
				if err := dc.ApplyRow(row, crdt.RawUpdate(raw)); err != nil {
					return fmt.Errorf("replication: data center %q row %d: apply: %w", name, row, err)
				}
			}
		}
	}
	return nil
}
