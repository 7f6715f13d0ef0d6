package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyshow-tech/fleet_dashboard/internal/card"
	"github.com/skyshow-tech/fleet_dashboard/internal/command"
	"github.com/skyshow-tech/fleet_dashboard/internal/config"
	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
	"github.com/skyshow-tech/fleet_dashboard/internal/gitstatus"
	"github.com/skyshow-tech/fleet_dashboard/internal/heartbeat"
	"github.com/skyshow-tech/fleet_dashboard/internal/origin"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	fleetStore, err := fleet.OpenStore(filepath.Join(dir, "config.csv"))
	require.NoError(t, err)
	require.NoError(t, fleetStore.Save(fleet.DroneConfig{
		HardwareID: "1", PositionID: "1", X: 10, Y: 20,
		IP: "10.0.0.11", MavlinkPort: "14551", DebugPort: "13541", GCSIP: "10.0.0.1",
	}))

	swarmStore, err := fleet.OpenSwarmStore(filepath.Join(dir, "swarm.csv"))
	require.NoError(t, err)

	return &Server{
		cfg:        &config.Config{WebAssetsDir: dir},
		fleet:      fleetStore,
		swarm:      swarmStore,
		heartbeats: heartbeat.NewStore(),
		poller:     gitstatus.NewPoller(7070, time.Minute, time.Second),
		gcs:        gitstatus.NewGCSReporter(dir),
		dispatcher: command.NewDispatcher(7070, time.Second),
		origins:    origin.NewStore(filepath.Join(dir, "origin.json")),
	}
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	mux := http.NewServeMux()
	s.routes(mux)

	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := doRequest(t, testServer(t), http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDroneHeartbeatRoundTrip(t *testing.T) {
	s := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/drone-heartbeat", map[string]any{
		"hw_id": "1", "pos_id": "1", "detected_pos_id": "1",
		"ip": "10.0.0.11", "timestamp": time.Now().UnixMilli(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/get-heartbeats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]heartbeat.Sample
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got, "1")
	assert.Equal(t, "10.0.0.11", got["1"].IP)
}

func TestDroneHeartbeatRejectsMissingID(t *testing.T) {
	w := doRequest(t, testServer(t), http.MethodPost, "/drone-heartbeat", map[string]any{"pos_id": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFleetViewComposes(t *testing.T) {
	s := testServer(t)
	s.heartbeats.Update("1", heartbeat.Sample{
		PositionID: "1", DetectedPositionID: "3", TimestampMillis: time.Now().UnixMilli(),
	})

	w := doRequest(t, s, http.MethodGet, "/get-fleet-view", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []card.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "1", views[0].Drone.HardwareID)
	assert.Equal(t, heartbeat.TierOnlineRecent, views[0].Age.Tier)
	assert.NotEmpty(t, views[0].Position.Actions, "detected/config mismatch offers a correction")
}

func TestSaveConfigDataReplacesFleet(t *testing.T) {
	s := testServer(t)

	next := []fleet.DroneConfig{
		{HardwareID: "1", PositionID: "2", IP: "10.0.0.11"},
		{HardwareID: "2", PositionID: "1", IP: "10.0.0.12"},
	}
	w := doRequest(t, s, http.MethodPost, "/save-config-data", next)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, s.fleet.All(), 2)
}

func TestSaveConfigDataRejectsDuplicates(t *testing.T) {
	w := doRequest(t, testServer(t), http.MethodPost, "/save-config-data", []fleet.DroneConfig{
		{HardwareID: "1"}, {HardwareID: "1"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGitStatusNotReported(t *testing.T) {
	w := doRequest(t, testServer(t), http.MethodGet, "/git-status?hw_id=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOriginSetAndGet(t *testing.T) {
	s := testServer(t)

	w := doRequest(t, s, http.MethodGet, "/get-origin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no origin until one is set")

	w = doRequest(t, s, http.MethodPost, "/set-origin", origin.Origin{Lat: 47.39774, Lon: 8.54559})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/get-origin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got origin.Origin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 47.39774, got.Lat)
}

func TestOriginFromDrone(t *testing.T) {
	s := testServer(t)

	w := doRequest(t, s, http.MethodPost, "/origin-from-drone", map[string]any{
		"hw_id": "1", "lat": 47.0, "lon": 8.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got origin.Origin
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	// Drone 1 sits at slot (10 north, 20 east), so the origin is south-west
	// of its reported position.
	assert.Less(t, got.Lat, 47.0)
	assert.Less(t, got.Lon, 8.0)

	w = doRequest(t, s, http.MethodPost, "/origin-from-drone", map[string]any{
		"hw_id": "99", "lat": 47.0, "lon": 8.0,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitCommandRejectsUnknownMission(t *testing.T) {
	w := doRequest(t, testServer(t), http.MethodPost, "/submit_command", map[string]any{
		"missionType": 424242,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestNewLeaderUnknownDrone(t *testing.T) {
	w := doRequest(t, testServer(t), http.MethodPost, "/request-new-leader", map[string]any{
		"hw_id": "99", "follow": "1",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
