package fleet

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var swarmHeader = []string{"hw_id", "follow", "offset_n", "offset_e", "offset_alt", "body_coord"}

// SwarmStore is the CSV-backed follow/offset table. Same file discipline as
// the fleet store: in-memory cache, atomic whole-file rewrites.
type SwarmStore struct {
	path string

	mu   sync.RWMutex
	rows []SwarmRow
}

func OpenSwarmStore(path string) (*SwarmStore, error) {
	s := &SwarmStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SwarmStore) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.rows = nil
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("open swarm config: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read swarm config: %w", err)
	}

	var rows []SwarmRow
	if len(records) > 0 {
		col := headerIndex(records[0])
		for _, rec := range records[1:] {
			rows = append(rows, SwarmRow{
				HardwareID: field(rec, col, "hw_id"),
				Follow:     field(rec, col, "follow"),
				OffsetN:    field(rec, col, "offset_n"),
				OffsetE:    field(rec, col, "offset_e"),
				OffsetAlt:  field(rec, col, "offset_alt"),
				BodyCoord:  field(rec, col, "body_coord") == "1",
			})
		}
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	return nil
}

func (s *SwarmStore) All() []SwarmRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SwarmRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// UpdateLeader applies a drone-proposed leadership change: the row for hwID
// gets the new follow target and offsets. Unknown ids are rejected; the
// swarm table is not grown from the leader-election path.
func (s *SwarmStore) UpdateLeader(hwID string, update SwarmRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.rows {
		if r.HardwareID == hwID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("fleet: swarm row for %q not found", hwID)
	}

	next := make([]SwarmRow, len(s.rows))
	copy(next, s.rows)
	row := &next[idx]
	if update.Follow != "" {
		row.Follow = update.Follow
	}
	if update.OffsetN != "" {
		row.OffsetN = update.OffsetN
	}
	if update.OffsetE != "" {
		row.OffsetE = update.OffsetE
	}
	if update.OffsetAlt != "" {
		row.OffsetAlt = update.OffsetAlt
	}
	row.BodyCoord = update.BodyCoord

	if err := s.write(next); err != nil {
		return err
	}
	s.rows = next

	log.Printf("fleet: leader updated for drone %s (follow %s)", hwID, row.Follow)
	return nil
}

// ReplaceAll swaps the whole swarm table, for the dashboard's bulk save.
func (s *SwarmStore) ReplaceAll(rows []SwarmRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(rows); err != nil {
		return err
	}
	s.rows = append([]SwarmRow(nil), rows...)
	return nil
}

func (s *SwarmStore) write(rows []SwarmRow) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".swarm-*.csv")
	if err != nil {
		return fmt.Errorf("write swarm config: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(swarmHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		body := "0"
		if r.BodyCoord {
			body = "1"
		}
		if err := w.Write([]string{r.HardwareID, r.Follow, r.OffsetN, r.OffsetE, r.OffsetAlt, body}); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
