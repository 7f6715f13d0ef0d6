package gitstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// errorLogThrottle controls failure logging per drone: the first failure is
// logged, then every Nth while the failure streak continues, then the
// recovery. Routine successful polls are never logged.
const errorLogThrottle = 10

// Target is one drone the poller should query.
type Target struct {
	HardwareID string
	IP         string
}

// Poller queries each drone's /get-git-status endpoint on an interval and
// keeps the latest report per hardware id.
type Poller struct {
	port     int
	interval time.Duration
	client   *http.Client

	mu       sync.RWMutex
	statuses map[string]*Status
	failures map[string]int
}

func NewPoller(dronePort int, interval time.Duration, requestTimeout time.Duration) *Poller {
	return &Poller{
		port:     dronePort,
		interval: interval,
		client:   &http.Client{Timeout: requestTimeout},
		statuses: make(map[string]*Status),
		failures: make(map[string]int),
	}
}

// Start launches one polling goroutine per target. Goroutines exit when ctx
// is cancelled.
func (p *Poller) Start(ctx context.Context, targets []Target) {
	for _, t := range targets {
		go p.pollLoop(ctx, t)
	}
	log.Printf("gitstatus: polling %d drones every %s", len(targets), p.interval)
}

func (p *Poller) pollLoop(ctx context.Context, t Target) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.pollOnce(ctx, t)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, t Target) {
	status, err := p.fetch(ctx, t)
	if err != nil {
		p.recordFailure(t.HardwareID, err)
		return
	}
	p.recordSuccess(t.HardwareID, status)
}

func (p *Poller) fetch(ctx context.Context, t Target) (*Status, error) {
	url := fmt.Sprintf("http://%s:%d/get-git-status", t.IP, p.port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, body)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode git status: %w", err)
	}
	return &status, nil
}

func (p *Poller) recordSuccess(hwID string, status *Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if streak := p.failures[hwID]; streak > 0 {
		log.Printf("gitstatus: drone %s recovered after %d failed polls (%s @ %.8s)",
			hwID, streak, status.Branch, status.Commit)
	}
	p.failures[hwID] = 0
	p.statuses[hwID] = status
}

func (p *Poller) recordFailure(hwID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failures[hwID]++
	streak := p.failures[hwID]
	if streak == 1 || streak%errorLogThrottle == 0 {
		log.Printf("gitstatus: poll failed for drone %s (streak %d): %v", hwID, streak, err)
	}
}

// Get returns the latest status for one drone, or nil if it has never
// answered.
func (p *Poller) Get(hwID string) *Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.statuses[hwID]
	if !ok {
		return nil
	}
	copied := *s
	return &copied
}

// Snapshot returns the latest status for all drones that have answered.
func (p *Poller) Snapshot() map[string]Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]Status, len(p.statuses))
	for hwID, s := range p.statuses {
		out[hwID] = *s
	}
	return out
}

// SyncSummary is the fleet-wide rollup logged periodically and served to
// the dashboard header.
type SyncSummary struct {
	Reported    int            `json:"reported"`
	InSync      int            `json:"in_sync"`
	OutOfSync   int            `json:"out_of_sync"`
	Dirty       int            `json:"dirty"`
	ByBranch    map[string]int `json:"by_branch"`
	FullySynced bool           `json:"fully_synced"`
}

// Summarize rolls the current snapshot up against a reference status.
func (p *Poller) Summarize(ref *Status) SyncSummary {
	snap := p.Snapshot()

	summary := SyncSummary{
		Reported: len(snap),
		ByBranch: make(map[string]int),
	}
	for _, s := range snap {
		s := s
		switch Compare(&s, ref) {
		case InSync:
			summary.InSync++
		default:
			summary.OutOfSync++
		}
		if len(s.UncommittedChanges) > 0 {
			summary.Dirty++
		}
		summary.ByBranch[s.Branch]++
	}
	summary.FullySynced = summary.Reported > 0 && summary.OutOfSync == 0 && summary.Dirty == 0
	return summary
}
