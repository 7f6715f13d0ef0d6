// Package mission carries the numeric command and state codes shared with
// the drone firmware, and their display names. The codes are wire protocol:
// they must match what drones interpret, so they are listed explicitly
// rather than generated.
package mission

// Code identifies a mission/action command sent to drones.
type Code int

const (
	None               Code = 0
	DroneShowFromCSV   Code = 1
	SmartSwarm         Code = 2
	CustomCSVDroneShow Code = 3
	RebootFC           Code = 6
	RebootSys          Code = 7
	TestLED            Code = 8
	TakeOff            Code = 10
	Test               Code = 100
	Land               Code = 101
	Hold               Code = 102
	UpdateCode         Code = 103
	ReturnRTL          Code = 104
	KillTerminate      Code = 105
	HoverTest          Code = 106
	InitSysID          Code = 110
	ApplyCommonParams  Code = 111
	Unknown            Code = 999
)

var codeNames = map[Code]string{
	None:               "NONE",
	DroneShowFromCSV:   "DRONE_SHOW_FROM_CSV",
	SmartSwarm:         "SMART_SWARM",
	CustomCSVDroneShow: "CUSTOM_CSV_DRONE_SHOW",
	RebootFC:           "REBOOT_FC",
	RebootSys:          "REBOOT_SYS",
	TestLED:            "TEST_LED",
	TakeOff:            "TAKE_OFF",
	Test:               "TEST",
	Land:               "LAND",
	Hold:               "HOLD",
	UpdateCode:         "UPDATE_CODE",
	ReturnRTL:          "RETURN_RTL",
	KillTerminate:      "KILL_TERMINATE",
	HoverTest:          "HOVER_TEST",
	InitSysID:          "INIT_SYSID",
	ApplyCommonParams:  "APPLY_COMMON_PARAMS",
	Unknown:            "UNKNOWN",
}

// Name returns the display name for a code, or "UNKNOWN" for codes this
// build does not know about (newer firmware may send more).
func (c Code) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[Unknown]
}

// Known reports whether the code is in this build's table.
func (c Code) Known() bool {
	_, ok := codeNames[c]
	return ok
}

// State is the drone-side mission lifecycle state reported in telemetry.
type State int

const (
	StateIdle             State = 0
	StateMissionReady     State = 1
	StateMissionExecuting State = 2
	StateUnknown          State = 999
)

var stateNames = map[State]string{
	StateIdle:             "IDLE",
	StateMissionReady:     "MISSION_READY",
	StateMissionExecuting: "MISSION_EXECUTING",
	StateUnknown:          "UNKNOWN",
}

func (s State) Name() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return stateNames[StateUnknown]
}

// Command is the payload posted to each drone's command endpoint. Field
// names match the drone-side API.
type Command struct {
	MissionType  Code     `json:"missionType"`
	TriggerTime  string   `json:"triggerTime"`
	TargetDrones []string `json:"target_drones,omitempty"`
}
