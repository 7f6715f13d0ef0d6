package fleet

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

var configHeader = []string{"hw_id", "pos_id", "x", "y", "ip", "mavlink_port", "debug_port", "gcs_ip"}

// Store is the CSV-backed fleet configuration. The file is the source of
// truth (drones fetch the same CSV); the in-memory slice is a cache guarded
// by mu. Mutations rewrite the whole file atomically.
type Store struct {
	path string

	mu     sync.RWMutex
	drones []DroneConfig
}

// OpenStore loads the fleet configuration from path. A missing file is an
// empty fleet, not an error: a fresh GCS starts with no drones configured.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the CSV from disk, replacing the cache.
func (s *Store) Reload() error {
	drones, err := readConfigCSV(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.drones = drones
	s.mu.Unlock()

	log.Printf("fleet: loaded %d drones from %s", len(drones), s.path)
	return nil
}

// All returns the fleet in file order.
func (s *Store) All() []DroneConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DroneConfig, len(s.drones))
	copy(out, s.drones)
	return out
}

// Get returns the drone with the given hardware id.
func (s *Store) Get(hwID string) (DroneConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.drones {
		if d.HardwareID == hwID {
			return d, true
		}
	}
	return DroneConfig{}, false
}

// Save upserts one drone and persists the table. The row keeps its file
// position on update; new drones append.
func (s *Store) Save(drone DroneConfig) error {
	if drone.HardwareID == "" {
		return fmt.Errorf("fleet: refusing to save drone with empty hw_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	next := make([]DroneConfig, len(s.drones))
	copy(next, s.drones)
	for i, d := range next {
		if d.HardwareID == drone.HardwareID {
			next[i] = drone
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, drone)
	}

	if err := writeConfigCSV(s.path, next); err != nil {
		return err
	}
	s.drones = next

	log.Printf("fleet: saved drone %s (pos %s)", drone.HardwareID, drone.PositionID)
	return nil
}

// ReplaceAll swaps the entire table, for the dashboard's bulk save.
func (s *Store) ReplaceAll(drones []DroneConfig) error {
	seen := make(map[string]bool, len(drones))
	for _, d := range drones {
		if d.HardwareID == "" {
			return fmt.Errorf("fleet: drone with empty hw_id in bulk save")
		}
		if seen[d.HardwareID] {
			return fmt.Errorf("fleet: duplicate hw_id %q in bulk save", d.HardwareID)
		}
		seen[d.HardwareID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeConfigCSV(s.path, drones); err != nil {
		return err
	}
	s.drones = append([]DroneConfig(nil), drones...)

	log.Printf("fleet: replaced configuration with %d drones", len(drones))
	return nil
}

// Remove deletes one drone and persists the table.
func (s *Store) Remove(hwID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]DroneConfig, 0, len(s.drones))
	found := false
	for _, d := range s.drones {
		if d.HardwareID == hwID {
			found = true
			continue
		}
		next = append(next, d)
	}
	if !found {
		return fmt.Errorf("fleet: drone %q not found", hwID)
	}

	if err := writeConfigCSV(s.path, next); err != nil {
		return err
	}
	s.drones = next

	log.Printf("fleet: removed drone %s", hwID)
	return nil
}

func readConfigCSV(path string) ([]DroneConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open fleet config: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read fleet config: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := headerIndex(rows[0])
	drones := make([]DroneConfig, 0, len(rows)-1)
	for i, row := range rows[1:] {
		d := DroneConfig{
			HardwareID:  field(row, col, "hw_id"),
			PositionID:  field(row, col, "pos_id"),
			IP:          field(row, col, "ip"),
			MavlinkPort: field(row, col, "mavlink_port"),
			DebugPort:   field(row, col, "debug_port"),
			GCSIP:       field(row, col, "gcs_ip"),
		}
		if d.X, err = parseCoord(field(row, col, "x")); err != nil {
			return nil, fmt.Errorf("fleet config line %d: %w", i+2, err)
		}
		if d.Y, err = parseCoord(field(row, col, "y")); err != nil {
			return nil, fmt.Errorf("fleet config line %d: %w", i+2, err)
		}
		drones = append(drones, d)
	}
	return drones, nil
}

func writeConfigCSV(path string, drones []DroneConfig) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.csv")
	if err != nil {
		return fmt.Errorf("write fleet config: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(configHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, d := range drones {
		row := []string{
			d.HardwareID,
			d.PositionID,
			strconv.FormatFloat(d.X, 'f', -1, 64),
			strconv.FormatFloat(d.Y, 'f', -1, 64),
			d.IP,
			d.MavlinkPort,
			d.DebugPort,
			d.GCSIP,
		}
		if err := w.Write(row); err != nil {
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

	return os.Rename(tmp.Name(), path)
}

func headerIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseCoord(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q", raw)
	}
	return v, nil
}
