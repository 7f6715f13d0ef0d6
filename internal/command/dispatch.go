// Package command fans mission commands out to the fleet over HTTP.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
	"github.com/skyshow-tech/fleet_dashboard/internal/mission"
)

const (
	maxConcurrentSends = 20
	sendRetries        = 3
)

// Dispatcher sends command payloads to drone companion computers. Sends are
// fire-and-forget from the dashboard's perspective; the aggregate Result is
// for operator feedback, not transactional semantics.
type Dispatcher struct {
	dronePort int
	client    *http.Client
	// sleep is swapped out in tests so backoff does not slow the suite.
	sleep func(time.Duration)
}

func NewDispatcher(dronePort int, requestTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		dronePort: dronePort,
		client:    &http.Client{Timeout: requestTimeout},
		sleep:     time.Sleep,
	}
}

// DroneResult is the outcome for one drone.
type DroneResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	IP      string `json:"drone_ip"`
}

// Result aggregates a fan-out.
type Result struct {
	Success int                    `json:"success"`
	Failed  int                    `json:"failed"`
	Total   int                    `json:"total"`
	Results map[string]DroneResult `json:"results"`
}

// SendToAll dispatches cmd to every drone concurrently, bounded to
// maxConcurrentSends in flight.
func (d *Dispatcher) SendToAll(ctx context.Context, drones []fleet.DroneConfig, cmd mission.Command) Result {
	if len(drones) == 0 {
		log.Printf("command: no drones configured, nothing to send")
		return Result{Results: map[string]DroneResult{}}
	}

	log.Printf("command: sending %s to %d drones", cmd.MissionType.Name(), len(drones))
	start := time.Now()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, maxConcurrentSends)
		results = make(map[string]DroneResult, len(drones))
	)

	for _, drone := range drones {
		wg.Add(1)
		go func(drone fleet.DroneConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := d.sendOne(ctx, drone, cmd)

			res := DroneResult{Success: err == nil, IP: drone.IP}
			if err != nil {
				res.Error = err.Error()
			}
			mu.Lock()
			results[drone.HardwareID] = res
			mu.Unlock()
		}(drone)
	}
	wg.Wait()

	result := Result{Total: len(drones), Results: results}
	for _, r := range results {
		if r.Success {
			result.Success++
		} else {
			result.Failed++
		}
	}

	elapsed := time.Since(start).Round(10 * time.Millisecond)
	switch {
	case result.Failed == 0:
		log.Printf("command: %s completed on all %d drones in %s", cmd.MissionType.Name(), result.Total, elapsed)
	case result.Success > 0:
		log.Printf("command: %s partial: %d/%d drones in %s", cmd.MissionType.Name(), result.Success, result.Total, elapsed)
	default:
		log.Printf("command: %s FAILED on all %d drones in %s", cmd.MissionType.Name(), result.Total, elapsed)
	}
	return result
}

// SendToSelected dispatches cmd only to the drones whose hardware ids are
// listed. Unknown ids are reported as failures rather than silently skipped.
func (d *Dispatcher) SendToSelected(ctx context.Context, drones []fleet.DroneConfig, cmd mission.Command, targetIDs []string) Result {
	byID := make(map[string]fleet.DroneConfig, len(drones))
	for _, drone := range drones {
		byID[drone.HardwareID] = drone
	}

	var selected []fleet.DroneConfig
	missing := make(map[string]DroneResult)
	for _, id := range targetIDs {
		drone, ok := byID[id]
		if !ok {
			missing[id] = DroneResult{Success: false, Error: "not in configuration"}
			continue
		}
		selected = append(selected, drone)
	}
	if len(missing) > 0 {
		log.Printf("command: %d target drones not in configuration", len(missing))
	}

	result := d.SendToAll(ctx, selected, cmd)
	for id, res := range missing {
		result.Results[id] = res
		result.Failed++
		result.Total++
	}
	return result
}

// sendOne posts the command to a single drone with retries and exponential
// backoff. Non-2xx responses and transport errors both retry; anything else
// is final.
func (d *Dispatcher) sendOne(ctx context.Context, drone fleet.DroneConfig, cmd mission.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/api/command", drone.IP, d.dronePort)
	var lastErr error

	for attempt := 0; attempt < sendRetries; attempt++ {
		if attempt > 0 {
			wait := time.Second << (attempt - 1)
			d.sleep(wait)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			if attempt > 0 {
				log.Printf("command: drone %s accepted %s after %d retries", drone.HardwareID, cmd.MissionType.Name(), attempt)
			}
			return nil
		}
		lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, body)
	}

	log.Printf("command: drone %s rejected %s: %v", drone.HardwareID, cmd.MissionType.Name(), lastErr)
	return lastErr
}
