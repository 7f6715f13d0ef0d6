// Copyright (c) 2026 Skyshow Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires the fleet dashboard together: MQTT ingestion, the git
// poller, the CSV stores and the HTTP/websocket surface the browser talks to.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/skyshow-tech/fleet_dashboard/internal/command"
	"github.com/skyshow-tech/fleet_dashboard/internal/config"
	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
	"github.com/skyshow-tech/fleet_dashboard/internal/gitstatus"
	"github.com/skyshow-tech/fleet_dashboard/internal/heartbeat"
	"github.com/skyshow-tech/fleet_dashboard/internal/origin"
)

// heartbeatMsg is the wire shape drones publish on the heartbeat topic and
// POST to /drone-heartbeat. hw_id identifies the sender; the rest is the
// stored sample.
type heartbeatMsg struct {
	HardwareID string `json:"hw_id"`
	heartbeat.Sample
}

// Server owns every long-lived collaborator of the dashboard process.
type Server struct {
	cfg        *config.Config
	fleet      *fleet.Store
	swarm      *fleet.SwarmStore
	heartbeats *heartbeat.Store
	poller     *gitstatus.Poller
	gcs        *gitstatus.GCSReporter
	dispatcher *command.Dispatcher
	origins    *origin.Store
}

// RunDashboard starts the dashboard and blocks serving HTTP. ctx cancellation
// stops the background pollers; the HTTP listener runs until it fails.
func RunDashboard(ctx context.Context) error {
	cfg := config.Get()

	fleetStore, err := fleet.OpenStore(cfg.FleetConfigCSV)
	if err != nil {
		return err
	}
	swarmStore, err := fleet.OpenSwarmStore(cfg.SwarmConfigCSV)
	if err != nil {
		return err
	}

	srv := &Server{
		cfg:        cfg,
		fleet:      fleetStore,
		swarm:      swarmStore,
		heartbeats: heartbeat.NewStore(),
		poller:     gitstatus.NewPoller(cfg.DroneAPIPort, time.Duration(cfg.GitPollInterval)*time.Second, cfg.RequestTimeout()),
		gcs:        gitstatus.NewGCSReporter("."),
		dispatcher: command.NewDispatcher(cfg.DroneAPIPort, cfg.RequestTimeout()),
		origins:    origin.NewStore(cfg.OriginFile),
	}

	// 1) Connect to MQTT broker and ingest heartbeats + origin fixes
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDashboard)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("dashboard: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicHeartbeat, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var hb heartbeatMsg
		if err := json.Unmarshal(msg.Payload(), &hb); err != nil {
			log.Printf("dashboard: heartbeat unmarshal error: %v", err)
			return
		}
		srv.heartbeats.Update(hb.HardwareID, hb.Sample)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("dashboard: subscribed to MQTT topic %s", cfg.TopicHeartbeat)

	if cfg.TopicOrigin != "" {
		token := client.Subscribe(cfg.TopicOrigin, 0, srv.handleOriginFix)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("dashboard: subscribed to MQTT topic %s", cfg.TopicOrigin)
	}

	// 2) Poll each configured drone for its git status
	targets := make([]gitstatus.Target, 0, len(fleetStore.All()))
	for _, d := range fleetStore.All() {
		targets = append(targets, gitstatus.Target{HardwareID: d.HardwareID, IP: d.IP})
	}
	srv.poller.Start(ctx, targets)

	// 3) HTTP API + websockets + static assets
	mux := http.NewServeMux()
	srv.routes(mux)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("dashboard: listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// handleOriginFix persists valid fixes from the ground-station GPS receiver
// as the show origin. Void fixes (no satellite lock yet) are dropped.
func (s *Server) handleOriginFix(_ mqtt.Client, msg mqtt.Message) {
	var fix origin.Fix
	if err := json.Unmarshal(msg.Payload(), &fix); err != nil {
		log.Printf("dashboard: origin fix unmarshal error: %v", err)
		return
	}
	if fix.Validity != "A" {
		return
	}
	if err := s.origins.Set(origin.Origin{Lat: fix.Latitude, Lon: fix.Longitude}); err != nil {
		log.Printf("dashboard: origin save error: %v", err)
	}
}
