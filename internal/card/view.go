// Package card derives the per-drone dashboard card: composed status view
// plus the editing workflow for the drone's configuration row.
package card

import (
	"time"

	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
	"github.com/skyshow-tech/fleet_dashboard/internal/gitstatus"
	"github.com/skyshow-tech/fleet_dashboard/internal/heartbeat"
	"github.com/skyshow-tech/fleet_dashboard/internal/posid"
)

// View is everything one card renders, computed fresh on every request from
// the current stores. Nothing in here is cached or mutated.
type View struct {
	Drone     fleet.DroneConfig    `json:"drone"`
	Heartbeat *heartbeat.Sample    `json:"heartbeat,omitempty"`
	Age       heartbeat.Age        `json:"age"`
	Position  posid.Classification `json:"position"`
	GitSync   gitstatus.SyncState  `json:"git_sync"`
	Git       *gitstatus.Status    `json:"git,omitempty"`
	Network   *heartbeat.NetInfo   `json:"network,omitempty"`
}

// BuildView composes the three pure evaluations for one drone. sample,
// droneGit and refGit may be nil; absence degrades to the explicit
// "no data" states, never an error.
func BuildView(drone fleet.DroneConfig, sample *heartbeat.Sample, droneGit, refGit *gitstatus.Status, now time.Time) View {
	v := View{
		Drone:   drone,
		Age:     heartbeat.EvaluateSample(sample, now),
		GitSync: gitstatus.Compare(droneGit, refGit),
		Git:     droneGit,
	}

	assigned, auto := "", ""
	if sample != nil {
		copied := *sample
		v.Heartbeat = &copied
		v.Network = sample.Network
		assigned = sample.PositionID
		auto = sample.DetectedPositionID
	}
	v.Position = posid.Classify(drone.PositionID, assigned, auto)

	return v
}
