// Copyright (c) 2026 Skyshow Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skyshow-tech/fleet_dashboard/internal/card"
	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocket message types
type wsMessage struct {
	Action string `json:"action"` // init, edit, field, select, custom, confirm, cancel_confirm, save, cancel
	HWID   string `json:"hw_id,omitempty"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
}

type wsResponse struct {
	Type    string              `json:"type"` // state, pending, saved, errors, error
	State   string              `json:"state,omitempty"`
	Buffer  *card.Buffer        `json:"buffer,omitempty"`
	Pending *card.PendingChange `json:"pending,omitempty"`
	Errors  map[string]string   `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
}

// handleFleetWS pushes the composed fleet view to the browser on a fixed
// cadence. The browser never requests; it just renders what arrives.
func (s *Server) handleFleetWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.cfg.PushInterval())
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(s.fleetView()); err != nil {
			return
		}
	}
}

// handleCardWS drives one card's edit workflow over a websocket. Each
// connection owns its own session; the message loop serializes access.
func (s *Server) handleCardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	var session *card.Session

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		if msg.Action == "init" {
			drone, ok := s.fleet.Get(msg.HWID)
			if !ok {
				sendWSError(conn, "drone not in configuration")
				continue
			}
			session = card.NewSession(drone)
			log.Printf("dashboard: card session opened for drone %s", msg.HWID)
			sendState(conn, session)
			continue
		}
		if session == nil {
			sendWSError(conn, "session not initialized")
			continue
		}

		switch msg.Action {
		case "edit":
			session.SetRecord(currentRecord(s, session))
			if err := session.BeginEdit(); err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			sendState(conn, session)

		case "field":
			if err := session.SetField(msg.Field, msg.Value); err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			sendState(conn, session)

		case "select":
			if err := session.SelectPositionID(msg.Value, s.fleet.All()); err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			sendState(conn, session)

		case "custom":
			if err := session.SetCustomPositionID(msg.Value); err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			sendState(conn, session)

		case "confirm":
			if err := session.ConfirmPositionChange(); err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			sendState(conn, session)

		case "cancel_confirm":
			if err := session.CancelPositionChange(); err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			sendState(conn, session)

		case "save":
			record, fieldErrs, err := session.Save()
			if err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			if len(fieldErrs) > 0 {
				conn.WriteJSON(wsResponse{Type: "errors", State: session.State().String(), Errors: fieldErrs})
				continue
			}
			if err := s.fleet.Save(record); err != nil {
				sendWSError(conn, err.Error())
				continue
			}
			conn.WriteJSON(wsResponse{Type: "saved", State: session.State().String()})

		case "cancel":
			session.Cancel()
			sendState(conn, session)

		default:
			sendWSError(conn, "unknown action")
		}
	}
}

// currentRecord refreshes the session's backing record from the store, so
// an edit starts from what is on disk rather than a stale card.
func currentRecord(s *Server, session *card.Session) fleet.DroneConfig {
	if drone, ok := s.fleet.Get(session.Record().HardwareID); ok {
		return drone
	}
	return session.Record()
}

func sendState(conn *websocket.Conn, session *card.Session) {
	resp := wsResponse{Type: "state", State: session.State().String()}
	if session.State() != card.Viewing {
		buf := session.Buffer()
		resp.Buffer = &buf
		resp.Pending = session.Pending()
	}
	conn.WriteJSON(resp)
}

func sendWSError(conn *websocket.Conn, message string) {
	conn.WriteJSON(wsResponse{Type: "error", Message: message})
}
