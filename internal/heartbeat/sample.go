// Package heartbeat tracks the latest liveness report per drone and derives
// age/liveness tiers from it.
package heartbeat

// Sample is one heartbeat as drones send it: reported IP, assigned and
// auto-detected position ids, and a sender-side timestamp in epoch millis.
// Every field is optional on the wire; a drone that has never reported has
// no Sample at all.
type Sample struct {
	IP                 string   `json:"ip,omitempty"`
	PositionID         string   `json:"pos_id,omitempty"`
	DetectedPositionID string   `json:"detected_pos_id,omitempty"`
	TimestampMillis    int64    `json:"timestamp,omitempty"`
	Network            *NetInfo `json:"network,omitempty"`
}

// HasTimestamp reports whether the sample carries a usable timestamp.
// Senders that omit the field decode to zero; non-positive values are
// treated as absent at this boundary so the rest of the code never has to
// guess.
func (s Sample) HasTimestamp() bool {
	return s.TimestampMillis > 0
}

// NetInfo is the optional per-drone network report piggybacked on
// heartbeats (the fleet stopped polling drones for this separately).
type NetInfo struct {
	Wifi     *WifiInfo     `json:"wifi,omitempty"`
	Ethernet *EthernetInfo `json:"ethernet,omitempty"`
}

type WifiInfo struct {
	SSID           string `json:"ssid"`
	SignalStrength int    `json:"signal_strength_percent"`
}

type EthernetInfo struct {
	Interface string `json:"interface"`
}
