package trades

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"qa-tradefeed/internal/types"

	"go.uber.org/zap"
)

// Snapshot is the whole persisted document: account id -> ledger, where a
// ledger is the append-ordered list of trades for that account. An account
// missing from the map is the same as an account with an empty ledger.
type Snapshot map[string][]types.Trade

// Store persists the snapshot as a single JSON document. Every mutation is a
// read-modify-write cycle serialized behind one mutex, and the document is
// replaced via tmp file + rename so a concurrent reader never sees a torn
// write. Read failures are absorbed (empty snapshot), write failures surface.
type Store struct {
	path string
	mu   sync.Mutex
	log  *zap.Logger
}

func NewStore(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

// Read returns the current snapshot. A missing, empty, or unreadable file
// yields an empty snapshot; the dashboard read path must always render.
func (s *Store) Read() Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed reading incoming file", zap.Error(err))
		}
		return Snapshot{}
	}
	if len(data) == 0 {
		return Snapshot{}
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("incoming file is not valid JSON, treating as empty", zap.Error(err))
		return Snapshot{}
	}
	if snap == nil {
		snap = Snapshot{}
	}
	return snap
}

// Write atomically replaces the persisted snapshot.
func (s *Store) Write(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(snap)
}

func (s *Store) writeLocked(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Append concatenates newTrades onto the account's ledger, creating the
// ledger if absent. No deduplication: resubmitting a batch appends duplicates.
func (s *Store) Append(accountID string, newTrades []types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.Read()
	ledger := append(snap[accountID], newTrades...)
	if ledger == nil {
		// An empty batch on a fresh account must still persist "[]", not null.
		ledger = []types.Trade{}
	}
	snap[accountID] = ledger
	return s.writeLocked(snap)
}

// RemoveByIDs filters the account's ledger, dropping every trade whose id is
// in ids, and returns how many were removed. An empty id set falls through to
// RemoveAll; that destructive default is part of the wire contract.
func (s *Store) RemoveByIDs(accountID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return s.RemoveAll(accountID)
	}
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.Read()
	ledger := snap[accountID]
	kept := make([]types.Trade, 0, len(ledger))
	for _, t := range ledger {
		if _, drop := idSet[t.ID]; drop {
			continue
		}
		kept = append(kept, t)
	}
	removed := len(ledger) - len(kept)
	snap[accountID] = kept
	if err := s.writeLocked(snap); err != nil {
		return 0, err
	}
	return removed, nil
}

// RemoveAll empties the account's ledger and returns its prior length. The
// account key stays in the document with an empty list.
func (s *Store) RemoveAll(accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.Read()
	removed := len(snap[accountID])
	snap[accountID] = []types.Trade{}
	if err := s.writeLocked(snap); err != nil {
		return 0, err
	}
	return removed, nil
}
