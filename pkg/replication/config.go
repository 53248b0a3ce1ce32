package replication

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the peer synchronizer's tuning parameters, sourced from
// the environment variables named in the external interfaces section:
// PEERS, PEER_SECRET, PEER_STRICT, HOST_ID, MAX_CHANGES, SYNC_DELTA.
type Config struct {
	// Peers is the set of peer base URLs to push to.
	Peers []string

	// PeerSecret is the HMAC-SHA256 key bearer tokens are signed and
	// verified with.
	PeerSecret string

	// PeerStrict holds the PEER_STRICT setting. Receive does not consult
	// it: inbound peer documents are not checked against a source IP.
	PeerStrict bool

	// HostID identifies this replica in the JWT "peer" claim. Defaults to
	// the OS hostname when unset.
	HostID string

	// MaxChanges is the accumulated-change trigger threshold.
	MaxChanges int

	// SyncDelta is the forced-sync trigger interval.
	SyncDelta time.Duration

	// Timeout bounds each peer POST.
	Timeout time.Duration
}

// ConfigFromEnv loads Config from the environment, applying the spec's
// documented defaults (MAX_CHANGES=100, SYNC_DELTA=300s) where a variable
// is unset.
func ConfigFromEnv() Config {
	cfg := Config{
		MaxChanges: 100,
		SyncDelta:  300 * time.Second,
		Timeout:    30 * time.Second,
	}
	if peers := os.Getenv("PEERS"); peers != "" {
		for _, p := range strings.Split(peers, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Peers = append(cfg.Peers, p)
			}
		}
	}
	cfg.PeerSecret = os.Getenv("PEER_SECRET")
	if strict := os.Getenv("PEER_STRICT"); strict != "" {
		cfg.PeerStrict, _ = strconv.ParseBool(strict)
	} else {
		cfg.PeerStrict = true
	}
	cfg.HostID = os.Getenv("HOST_ID")
	if cfg.HostID == "" {
		cfg.HostID, _ = os.Hostname()
	}
	if v := os.Getenv("MAX_CHANGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxChanges = n
		}
	}
	if v := os.Getenv("SYNC_DELTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SyncDelta = time.Duration(n) * time.Second
		}
	}
	return cfg
}
