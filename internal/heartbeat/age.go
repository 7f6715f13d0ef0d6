package heartbeat

import "time"

// Liveness tier thresholds in seconds. 20 is Stale, 60 is Offline; both
// boundaries belong to the staler tier.
const (
	OnlineThresholdSeconds  = 20
	OfflineThresholdSeconds = 60
)

// Tier is the coarse liveness bucket the dashboard renders.
type Tier string

const (
	TierNoHeartbeat  Tier = "no_heartbeat"
	TierOnlineRecent Tier = "online"
	TierStale        Tier = "stale"
	TierOffline      Tier = "offline"
)

// Age is the evaluated freshness of a heartbeat. Seconds is meaningless when
// Known is false. Negative ages happen under clock skew and pass through
// unclamped.
type Age struct {
	Seconds int64 `json:"age_seconds"`
	Known   bool  `json:"known"`
	Tier    Tier  `json:"tier"`
}

// Evaluate derives the age and tier for a heartbeat timestamp. now is
// injectable so the tier boundaries are testable; callers on the serving
// path pass time.Now().
func Evaluate(timestampMillis int64, known bool, now time.Time) Age {
	if !known {
		return Age{Tier: TierNoHeartbeat}
	}

	seconds := floorDiv(now.UnixMilli()-timestampMillis, 1000)

	tier := TierOnlineRecent
	switch {
	case seconds >= OfflineThresholdSeconds:
		tier = TierOffline
	case seconds >= OnlineThresholdSeconds:
		tier = TierStale
	}

	return Age{Seconds: seconds, Known: true, Tier: tier}
}

// EvaluateSample is the common case: feed a stored sample straight in.
func EvaluateSample(s *Sample, now time.Time) Age {
	if s == nil {
		return Age{Tier: TierNoHeartbeat}
	}
	return Evaluate(s.TimestampMillis, s.HasTimestamp(), now)
}

// floorDiv rounds toward negative infinity, unlike Go's native division.
// A heartbeat stamped slightly in the future must report -1s, not 0s.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
