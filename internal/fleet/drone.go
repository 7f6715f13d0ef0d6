// Package fleet owns the per-drone hardware/network configuration table
// (config.csv) and the swarm-follow table (swarm.csv).
package fleet

// DroneConfig is one row of the fleet configuration: hardware identity,
// network endpoints, and the launch slot (position id plus local x/y launch
// coordinates in meters). Rows are keyed by HardwareID, which is unique in
// a configuration set.
type DroneConfig struct {
	HardwareID  string  `json:"hw_id"`
	PositionID  string  `json:"pos_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	IP          string  `json:"ip"`
	MavlinkPort string  `json:"mavlink_port"`
	DebugPort   string  `json:"debug_port"`
	GCSIP       string  `json:"gcs_ip"`
}

// SwarmRow is one row of swarm.csv: who this drone follows and at what
// offsets. Follow "0" marks a top leader.
type SwarmRow struct {
	HardwareID string `json:"hw_id"`
	Follow     string `json:"follow"`
	OffsetN    string `json:"offset_n"`
	OffsetE    string `json:"offset_e"`
	OffsetAlt  string `json:"offset_alt"`
	BodyCoord  bool   `json:"body_coord"`
}
