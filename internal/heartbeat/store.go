package heartbeat

import (
	"log"
	"sync"
	"time"
)

// confirmInterval is how often an already-established drone gets a periodic
// "still alive" log line. Routine heartbeats in between are not logged.
const confirmInterval = 5 * time.Minute

type entry struct {
	sample     Sample
	firstSeen  time.Time
	lastLogged time.Time
}

// Store keeps the latest heartbeat per hardware id. All access is
// mutex-guarded; readers get copies, never references into the map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Update records the latest sample for hwID. The first heartbeat from a
// drone is logged; after that only a periodic confirmation, so a 60-drone
// fleet at 10s intervals does not flood the terminal.
func (s *Store) Update(hwID string, sample Sample) {
	if hwID == "" {
		return
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hwID]
	if !ok {
		s.entries[hwID] = &entry{sample: sample, firstSeen: now, lastLogged: now}
		log.Printf("heartbeat: established from drone %s (ip %s, pos %s)", hwID, sample.IP, sample.PositionID)
		return
	}

	e.sample = sample
	if now.Sub(e.lastLogged) > confirmInterval {
		log.Printf("heartbeat: active from drone %s (ip %s, pos %s)", hwID, sample.IP, sample.PositionID)
		e.lastLogged = now
	}
}

// Get returns a copy of the latest sample for hwID, if any.
func (s *Store) Get(hwID string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[hwID]
	if !ok {
		return Sample{}, false
	}
	return e.sample, true
}

// Snapshot returns the latest sample for every drone that has ever reported.
func (s *Store) Snapshot() map[string]Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Sample, len(s.entries))
	for hwID, e := range s.entries {
		out[hwID] = e.sample
	}
	return out
}
