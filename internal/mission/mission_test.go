package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeNames(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{None, "NONE"},
		{DroneShowFromCSV, "DRONE_SHOW_FROM_CSV"},
		{SmartSwarm, "SMART_SWARM"},
		{TakeOff, "TAKE_OFF"},
		{Land, "LAND"},
		{Hold, "HOLD"},
		{ReturnRTL, "RETURN_RTL"},
		{KillTerminate, "KILL_TERMINATE"},
		{UpdateCode, "UPDATE_CODE"},
		{InitSysID, "INIT_SYSID"},
		{ApplyCommonParams, "APPLY_COMMON_PARAMS"},
		{Unknown, "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.Name())
	}
}

func TestUnlistedCodeFallsBackToUnknown(t *testing.T) {
	c := Code(42)
	assert.False(t, c.Known())
	assert.Equal(t, "UNKNOWN", c.Name())
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.Name())
	assert.Equal(t, "MISSION_READY", StateMissionReady.Name())
	assert.Equal(t, "MISSION_EXECUTING", StateMissionExecuting.Name())
	assert.Equal(t, "UNKNOWN", State(7).Name())
}
