// Package origin manages the show's launch origin: the geodetic point that
// local launch coordinates (x north, y east) are measured from.
package origin

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// Fix is one GPS reading from the ground-station receiver, published on the
// origin MQTT topic by the origin producer.
type Fix struct {
	Time       string  `json:"time"`
	Date       string  `json:"date"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	SpeedKnots float64 `json:"speed_knots"`
	CourseDeg  float64 `json:"course_deg"`
	Validity   string  `json:"validity"` // "A" valid / "V" void
}

// Origin is the persisted launch origin.
type Origin struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Store persists the origin as a small JSON file next to the fleet CSVs.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Set writes the origin atomically.
func (s *Store) Set(o Origin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".origin-*.json")
	if err != nil {
		return fmt.Errorf("write origin: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Get reads the persisted origin. ok is false when no origin has been set.
func (s *Store) Get() (Origin, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Origin{}, false, nil
		}
		return Origin{}, false, fmt.Errorf("read origin: %w", err)
	}

	var o Origin
	if err := json.Unmarshal(data, &o); err != nil {
		return Origin{}, false, fmt.Errorf("parse origin: %w", err)
	}
	if o.Lat == 0 && o.Lon == 0 {
		return Origin{}, false, nil
	}
	return o, true, nil
}

// metersPerDegreeLat is the small-field flat-earth approximation the fleet
// uses everywhere; show fields are a few hundred meters across at most.
const metersPerDegreeLat = 111320.0

// ComputeFromDrone back-projects the origin from one physically placed
// drone: given where the drone actually is (lat/lon) and where its slot
// says it should be relative to the origin (north/east meters), solve for
// the origin.
func ComputeFromDrone(currentLat, currentLon, intendedNorth, intendedEast float64) Origin {
	lat := currentLat - intendedNorth/metersPerDegreeLat
	lon := currentLon - intendedEast/(metersPerDegreeLat*math.Cos(currentLat*math.Pi/180))
	return Origin{Lat: lat, Lon: lon}
}
