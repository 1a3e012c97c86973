package service

import (
	"sync"
	"time"
)

// PendingCorrelation ties a responder address to the one request currently
// awaiting that responder's decision.  The request itself is owned by the
// record store; this is only a lookup hint.
type PendingCorrelation struct {
	ResponderAddress string
	RequestID        string
	VisitorName      string
	RegisteredAt     time.Time
}

// PendingTable is the in-memory map of outstanding decisions, keyed by
// canonical responder address.  At most one entry per address: a new
// registration for an address supersedes any prior one, matching the
// one-outstanding-decision-per-responder model.  Entries do not survive a
// restart; requests orphaned that way stay reachable through the explicit
// "YES <id>" path.
type PendingTable struct {
	mu      sync.Mutex
	entries map[string]PendingCorrelation
}

func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[string]PendingCorrelation)}
}

func (t *PendingTable) Register(address, requestID, visitorName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[address] = PendingCorrelation{
		ResponderAddress: address,
		RequestID:        requestID,
		VisitorName:      visitorName,
		RegisteredAt:     time.Now().UTC(),
	}
}

// Resolve tries each candidate address in order and returns the first
// matching correlation.  Only the given candidates are consulted.
func (t *PendingTable) Resolve(candidates []string) (PendingCorrelation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, addr := range candidates {
		if pc, ok := t.entries[addr]; ok {
			return pc, true
		}
	}
	return PendingCorrelation{}, false
}

// Remove deletes the entry for an address.  Idempotent.
func (t *PendingTable) Remove(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, address)
}

// PruneOlderThan deletes entries registered before the cutoff and returns
// how many were removed.
func (t *PendingTable) PruneOlderThan(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for addr, pc := range t.entries {
		if pc.RegisteredAt.Before(cutoff) {
			delete(t.entries, addr)
			n++
		}
	}
	return n
}

// Len reports the number of outstanding correlations.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
