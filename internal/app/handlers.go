// Copyright (c) 2026 Skyshow Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/skyshow-tech/fleet_dashboard/internal/card"
	"github.com/skyshow-tech/fleet_dashboard/internal/command"
	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
	"github.com/skyshow-tech/fleet_dashboard/internal/heartbeat"
	"github.com/skyshow-tech/fleet_dashboard/internal/mission"
	"github.com/skyshow-tech/fleet_dashboard/internal/origin"
)

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/ping", s.handlePing)

	mux.HandleFunc("/drone-heartbeat", s.handleDroneHeartbeat)
	mux.HandleFunc("/get-heartbeats", s.handleGetHeartbeats)
	mux.HandleFunc("/get-network-info", s.handleGetNetworkInfo)
	mux.HandleFunc("/get-fleet-view", s.handleGetFleetView)

	mux.HandleFunc("/get-config-data", s.handleGetConfigData)
	mux.HandleFunc("/save-config-data", s.handleSaveConfigData)
	mux.HandleFunc("/remove-drone", s.handleRemoveDrone)
	mux.HandleFunc("/get-swarm-data", s.handleGetSwarmData)
	mux.HandleFunc("/save-swarm-data", s.handleSaveSwarmData)
	mux.HandleFunc("/request-new-leader", s.handleRequestNewLeader)

	mux.HandleFunc("/git-status", s.handleGitStatus)
	mux.HandleFunc("/get-gcs-git-status", s.handleGCSGitStatus)
	mux.HandleFunc("/git-summary", s.handleGitSummary)

	mux.HandleFunc("/submit_command", s.handleSubmitCommand)

	mux.HandleFunc("/get-origin", s.handleGetOrigin)
	mux.HandleFunc("/set-origin", s.handleSetOrigin)
	mux.HandleFunc("/origin-from-drone", s.handleOriginFromDrone)

	mux.HandleFunc("/ws/heartbeats", s.handleFleetWS)
	mux.HandleFunc("/ws/card", s.handleCardWS)

	// Static files as the root
	dir := s.cfg.WebAssetsDir
	if dir == "" {
		dir = "web"
	}
	mux.Handle("/", http.FileServer(http.Dir(dir)))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("dashboard: json encode error: %v", err)
	}
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleDroneHeartbeat is the HTTP fallback for drones that cannot reach the
// MQTT broker. Same payload as the heartbeat topic.
func (s *Server) handleDroneHeartbeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var hb heartbeatMsg
	if err := json.NewDecoder(r.Body).Decode(&hb); err != nil {
		http.Error(w, "bad heartbeat payload", http.StatusBadRequest)
		return
	}
	if hb.HardwareID == "" {
		http.Error(w, "missing hw_id", http.StatusBadRequest)
		return
	}

	s.heartbeats.Update(hb.HardwareID, hb.Sample)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGetHeartbeats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.heartbeats.Snapshot())
}

// handleGetNetworkInfo serves the per-drone network reports piggybacked on
// heartbeats, keyed by hardware id. Drones without a report are omitted.
func (s *Server) handleGetNetworkInfo(w http.ResponseWriter, r *http.Request) {
	nets := make(map[string]*heartbeat.NetInfo)
	for hwID, sample := range s.heartbeats.Snapshot() {
		if sample.Network != nil {
			nets[hwID] = sample.Network
		}
	}
	writeJSON(w, nets)
}

// handleGetFleetView serves one composed card view per configured drone, in
// configuration order. This is the payload the dashboard grid renders.
func (s *Server) handleGetFleetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.fleetView())
}

func (s *Server) fleetView() []card.View {
	now := time.Now()
	ref := s.gcs.Report()
	samples := s.heartbeats.Snapshot()

	drones := s.fleet.All()
	views := make([]card.View, 0, len(drones))
	for _, d := range drones {
		var sample *heartbeat.Sample
		if hb, ok := samples[d.HardwareID]; ok {
			hb := hb
			sample = &hb
		}
		views = append(views, card.BuildView(d, sample, s.poller.Get(d.HardwareID), ref, now))
	}
	return views
}

func (s *Server) handleGetConfigData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.fleet.All())
}

// handleSaveConfigData accepts either the full table (array) for bulk save
// or a single drone (object) for the card's save button.
func (s *Server) handleSaveConfigData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var drones []fleet.DroneConfig
	if err := json.NewDecoder(r.Body).Decode(&drones); err != nil {
		http.Error(w, "bad config payload", http.StatusBadRequest)
		return
	}

	if err := s.fleet.ReplaceAll(drones); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleRemoveDrone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		HardwareID string `json:"hw_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HardwareID == "" {
		http.Error(w, "missing hw_id", http.StatusBadRequest)
		return
	}

	if err := s.fleet.Remove(req.HardwareID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSwarmData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.swarm.All())
}

func (s *Server) handleSaveSwarmData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rows []fleet.SwarmRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		http.Error(w, "bad swarm payload", http.StatusBadRequest)
		return
	}

	if err := s.swarm.ReplaceAll(rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleRequestNewLeader lets a drone propose a leadership change for its
// own swarm row, typically after the elected leader went dark mid-show.
func (s *Server) handleRequestNewLeader(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		HardwareID string `json:"hw_id"`
		fleet.SwarmRow
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HardwareID == "" {
		http.Error(w, "missing hw_id", http.StatusBadRequest)
		return
	}

	if err := s.swarm.UpdateLeader(req.HardwareID, req.SwarmRow); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleGitStatus serves the last polled git status for ?hw_id=N.
func (s *Server) handleGitStatus(w http.ResponseWriter, r *http.Request) {
	hwID := r.URL.Query().Get("hw_id")
	if hwID == "" {
		http.Error(w, "missing hw_id", http.StatusBadRequest)
		return
	}

	status := s.poller.Get(hwID)
	if status == nil {
		http.Error(w, "no git status reported", http.StatusNotFound)
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleGCSGitStatus(w http.ResponseWriter, r *http.Request) {
	status := s.gcs.Report()
	if status == nil {
		http.Error(w, "gcs git status unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleGitSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.poller.Summarize(s.gcs.Report()))
}

// handleSubmitCommand fans a mission command out to the whole fleet, or to
// target_drones only when the payload names any.
func (s *Server) handleSubmitCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd mission.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "bad command payload", http.StatusBadRequest)
		return
	}
	if !cmd.MissionType.Known() {
		http.Error(w, "unknown mission type", http.StatusBadRequest)
		return
	}

	drones := s.fleet.All()
	var result command.Result
	if len(cmd.TargetDrones) > 0 {
		result = s.dispatcher.SendToSelected(r.Context(), drones, cmd, cmd.TargetDrones)
	} else {
		result = s.dispatcher.SendToAll(r.Context(), drones, cmd)
	}
	writeJSON(w, result)
}

func (s *Server) handleGetOrigin(w http.ResponseWriter, r *http.Request) {
	o, ok, err := s.origins.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "origin not set", http.StatusNotFound)
		return
	}
	writeJSON(w, o)
}

func (s *Server) handleSetOrigin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var o origin.Origin
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		http.Error(w, "bad origin payload", http.StatusBadRequest)
		return
	}
	if o.Lat == 0 && o.Lon == 0 {
		http.Error(w, "origin must be non-zero", http.StatusBadRequest)
		return
	}

	if err := s.origins.Set(o); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("dashboard: origin set to %.6f, %.6f", o.Lat, o.Lon)
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleOriginFromDrone derives the origin from one placed drone: its
// current GPS position plus its configured launch slot.
func (s *Server) handleOriginFromDrone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		HardwareID string  `json:"hw_id"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HardwareID == "" {
		http.Error(w, "missing hw_id", http.StatusBadRequest)
		return
	}

	drone, ok := s.fleet.Get(req.HardwareID)
	if !ok {
		http.Error(w, "drone not in configuration", http.StatusNotFound)
		return
	}

	o := origin.ComputeFromDrone(req.Lat, req.Lon, drone.X, drone.Y)
	if err := s.origins.Set(o); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("dashboard: origin derived from drone %s: %.6f, %.6f", req.HardwareID, o.Lat, o.Lon)
	writeJSON(w, o)
}
