// Package posid reconciles the three position-id sources a drone card sees:
// the configured id, the id the drone reports as assigned, and the id the
// drone auto-detects from its own placement.
package posid

// Position ids are carried as raw strings end to end. The fleet convention
// is that "0" (or an empty string) means "not detected", never a real slot.
// That sentinel is interpreted here and nowhere else.
const undetectedSentinel = "0"

// Normalize maps an absent position id to the empty string. Ids are never
// trimmed or reformatted; heartbeat senders control the exact formatting and
// comparisons downstream are strict string equality ("07" != "7").
func Normalize(id string) string {
	return id
}

// Undetected reports whether id carries the legacy "no auto detection" value.
func Undetected(id string) bool {
	return id == "" || id == undetectedSentinel
}

// Category is the reconciliation outcome for one drone.
type Category int

const (
	// NoHeartbeatData means the drone has never reported either id.
	NoHeartbeatData Category = iota
	// AllMatch means config, assigned and auto-detected ids all agree.
	AllMatch
	// ConfigAssignedMatchNoAuto means config and assigned agree and the
	// drone has not auto-detected a position.
	ConfigAssignedMatchNoAuto
	// Mismatch means at least two of the sources disagree.
	Mismatch
	// ConfigOnly is the fallback: nothing to reconcile, show the config id.
	ConfigOnly
)

func (c Category) String() string {
	switch c {
	case NoHeartbeatData:
		return "no_heartbeat_data"
	case AllMatch:
		return "all_match"
	case ConfigAssignedMatchNoAuto:
		return "config_assigned_match_no_auto"
	case Mismatch:
		return "mismatch"
	default:
		return "config_only"
	}
}

// ActionKind identifies a suggested correction on a mismatch.
type ActionKind string

const (
	AcceptAuto     ActionKind = "accept_auto"
	AcceptAssigned ActionKind = "accept_assigned"
)

// Action is a suggested correction: adopt Value as the configured position
// id. Applying it is the caller's business; classification has no side
// effects.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Value string     `json:"value"`
}

// Classification is the derived status for one (config, assigned, auto)
// triple. Computed fresh per request, never stored.
type Classification struct {
	Category Category `json:"category"`
	Actions  []Action `json:"actions,omitempty"`
}

// Classify reconciles the three position-id sources into exactly one
// category. Precedence: NoHeartbeatData > AllMatch >
// ConfigAssignedMatchNoAuto > Mismatch > ConfigOnly.
func Classify(config, assigned, auto string) Classification {
	config = Normalize(config)
	assigned = Normalize(assigned)
	auto = Normalize(auto)

	if assigned == "" && auto == "" {
		return Classification{Category: NoHeartbeatData}
	}

	if config != "" && assigned != "" && config == assigned {
		if assigned == auto {
			return Classification{Category: AllMatch}
		}
		if Undetected(auto) {
			return Classification{Category: ConfigAssignedMatchNoAuto}
		}
	}

	if config != assigned || config != auto || assigned != auto {
		return Classification{
			Category: Mismatch,
			Actions:  suggestActions(config, assigned, auto),
		}
	}

	return Classification{Category: ConfigOnly}
}

// suggestActions builds the override candidates for a mismatch. "0" is never
// a valid target, and a candidate equal to the configured id is not worth
// offering.
func suggestActions(config, assigned, auto string) []Action {
	var actions []Action
	if !Undetected(auto) && auto != config {
		actions = append(actions, Action{Kind: AcceptAuto, Value: auto})
	}
	if assigned != "" && assigned != config {
		actions = append(actions, Action{Kind: AcceptAssigned, Value: assigned})
	}
	return actions
}
