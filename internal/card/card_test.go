package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyshow-tech/fleet_dashboard/internal/fleet"
	"github.com/skyshow-tech/fleet_dashboard/internal/gitstatus"
	"github.com/skyshow-tech/fleet_dashboard/internal/heartbeat"
	"github.com/skyshow-tech/fleet_dashboard/internal/posid"
)

var testDrone = fleet.DroneConfig{
	HardwareID:  "1",
	PositionID:  "1",
	X:           10,
	Y:           20,
	IP:          "10.0.0.11",
	MavlinkPort: "14551",
	DebugPort:   "13541",
	GCSIP:       "10.0.0.1",
}

func TestBuildViewNoData(t *testing.T) {
	v := BuildView(testDrone, nil, nil, nil, time.Now())

	assert.Equal(t, posid.NoHeartbeatData, v.Position.Category)
	assert.Equal(t, heartbeat.TierNoHeartbeat, v.Age.Tier)
	assert.Equal(t, gitstatus.StatusUnavailable, v.GitSync)
	assert.Nil(t, v.Heartbeat)
	assert.Nil(t, v.Network)
}

func TestBuildViewComposed(t *testing.T) {
	now := time.UnixMilli(100_000)
	sample := &heartbeat.Sample{
		IP:                 "10.0.0.11",
		PositionID:         "1",
		DetectedPositionID: "3",
		TimestampMillis:    95_000,
		Network:            &heartbeat.NetInfo{Wifi: &heartbeat.WifiInfo{SSID: "show-field"}},
	}
	droneGit := &gitstatus.Status{Commit: "abc123"}
	refGit := &gitstatus.Status{Commit: "abc123"}

	v := BuildView(testDrone, sample, droneGit, refGit, now)

	assert.Equal(t, posid.Mismatch, v.Position.Category)
	assert.Equal(t, int64(5), v.Age.Seconds)
	assert.Equal(t, heartbeat.TierOnlineRecent, v.Age.Tier)
	assert.Equal(t, gitstatus.InSync, v.GitSync)
	require.NotNil(t, v.Network)
	assert.Equal(t, "show-field", v.Network.Wifi.SSID)
}

func TestBuildViewCopiesSample(t *testing.T) {
	sample := &heartbeat.Sample{PositionID: "1", TimestampMillis: 1000}
	v := BuildView(testDrone, sample, nil, nil, time.UnixMilli(2000))

	sample.PositionID = "mutated"
	assert.Equal(t, "1", v.Heartbeat.PositionID)
}

func TestSessionBeginEditAndCancel(t *testing.T) {
	s := NewSession(testDrone)
	assert.Equal(t, Viewing, s.State())

	require.NoError(t, s.BeginEdit())
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, "10", s.Buffer().X)
	assert.Equal(t, "14551", s.Buffer().MavlinkPort)

	assert.Error(t, s.BeginEdit(), "re-entrant edit rejected")

	require.NoError(t, s.SetField("ip", "10.0.0.99"))
	s.Cancel()
	assert.Equal(t, Viewing, s.State())
	assert.Equal(t, "10.0.0.11", s.Record().IP, "cancel discards the buffer")
}

func TestSessionSharedPositionIDNeedsConfirmation(t *testing.T) {
	other := fleet.DroneConfig{HardwareID: "2", PositionID: "7", X: 30, Y: 40}
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())

	require.NoError(t, s.SelectPositionID("7", []fleet.DroneConfig{testDrone, other}))
	assert.Equal(t, ConfirmingPositionChange, s.State())

	p := s.Pending()
	require.NotNil(t, p)
	assert.Equal(t, "7", p.PositionID)
	assert.Equal(t, "30", p.NewX)
	assert.Equal(t, "40", p.NewY)
	assert.Equal(t, "10", p.OldX)
	assert.Equal(t, "20", p.OldY)

	// Nothing is applied until confirmation.
	assert.Equal(t, "1", s.Buffer().PositionID)
	assert.Equal(t, "10", s.Buffer().X)

	require.NoError(t, s.ConfirmPositionChange())
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, "7", s.Buffer().PositionID)
	assert.Equal(t, "30", s.Buffer().X)
	assert.Equal(t, "40", s.Buffer().Y)
}

func TestSessionCancelPositionChangeRevertsNothing(t *testing.T) {
	other := fleet.DroneConfig{HardwareID: "2", PositionID: "7", X: 30, Y: 40}
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())
	before := s.Buffer()

	require.NoError(t, s.SelectPositionID("7", []fleet.DroneConfig{other}))
	require.NoError(t, s.CancelPositionChange())

	assert.Equal(t, Editing, s.State())
	assert.Equal(t, before, s.Buffer(), "buffer untouched after cancel")
	assert.Nil(t, s.Pending())
}

func TestSessionSelectOwnIDIsNoOp(t *testing.T) {
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())

	require.NoError(t, s.SelectPositionID("1", []fleet.DroneConfig{testDrone}))
	assert.Equal(t, Editing, s.State(), "selecting the current id never confirms")
}

func TestSessionUnclaimedIDAppliesDirectly(t *testing.T) {
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())

	require.NoError(t, s.SelectPositionID("42", []fleet.DroneConfig{testDrone}))
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, "42", s.Buffer().PositionID)
	assert.Equal(t, "10", s.Buffer().X, "coordinates kept when no drone holds the id")
}

func TestSessionCustomPositionIDResetsCoordinates(t *testing.T) {
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())

	require.NoError(t, s.SetCustomPositionID("spare-9"))
	assert.Equal(t, Editing, s.State(), "custom entry skips confirmation")
	assert.Equal(t, "spare-9", s.Buffer().PositionID)
	assert.Equal(t, "0", s.Buffer().X)
	assert.Equal(t, "0", s.Buffer().Y)
}

func TestSessionSaveValid(t *testing.T) {
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())
	require.NoError(t, s.SetField("x", "3.5"))
	require.NoError(t, s.SetField("ip", "10.0.0.12"))

	record, fieldErrs, err := s.Save()
	require.NoError(t, err)
	assert.Empty(t, fieldErrs)
	assert.Equal(t, Viewing, s.State())
	assert.Equal(t, 3.5, record.X)
	assert.Equal(t, "10.0.0.12", record.IP)
	assert.Equal(t, record, s.Record())
}

func TestSessionSaveValidation(t *testing.T) {
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())
	require.NoError(t, s.SetCustomPositionID(""))
	require.NoError(t, s.SetField("y", "north"))
	require.NoError(t, s.SetField("gcs_ip", ""))

	_, fieldErrs, err := s.Save()
	require.NoError(t, err)
	assert.Equal(t, "required", fieldErrs["pos_id"])
	assert.Equal(t, "required", fieldErrs["gcs_ip"])
	assert.Equal(t, "must be a number", fieldErrs["y"])
	assert.NotContains(t, fieldErrs, "x", "0 from custom reset still parses")
	assert.Equal(t, Editing, s.State(), "rejected save stays in editing")
	assert.Equal(t, "1", s.Record().PositionID, "record unchanged")
}

func TestSessionExternalUpdateIgnoredWhileEditing(t *testing.T) {
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())

	updated := testDrone
	updated.IP = "10.0.0.50"
	s.SetRecord(updated)
	assert.Equal(t, "10.0.0.11", s.Record().IP)

	s.Cancel()
	s.SetRecord(updated)
	assert.Equal(t, "10.0.0.50", s.Record().IP)
}

func TestSessionUnknownField(t *testing.T) {
	s := NewSession(testDrone)
	require.NoError(t, s.BeginEdit())
	assert.Error(t, s.SetField("altitude", "10"))
}
