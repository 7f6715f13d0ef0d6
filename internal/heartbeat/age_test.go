package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateTiers(t *testing.T) {
	now := time.UnixMilli(100000)

	tests := []struct {
		name        string
		timestamp   int64
		wantSeconds int64
		wantTier    Tier
	}{
		{"same instant", 100000, 0, TierOnlineRecent},
		{"just under stale", 80001, 19, TierOnlineRecent},
		{"stale boundary inclusive", 80000, 20, TierStale},
		{"just under offline", 40001, 59, TierStale},
		{"offline boundary inclusive", 40000, 60, TierOffline},
		{"long gone", 0, 100, TierOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.timestamp, true, now)
			assert.True(t, got.Known)
			assert.Equal(t, tt.wantSeconds, got.Seconds)
			assert.Equal(t, tt.wantTier, got.Tier)
		})
	}
}

func TestEvaluateUnknownTimestamp(t *testing.T) {
	got := Evaluate(0, false, time.UnixMilli(100000))
	assert.False(t, got.Known)
	assert.Equal(t, TierNoHeartbeat, got.Tier)
}

func TestEvaluateClockSkewPassesThrough(t *testing.T) {
	// A heartbeat stamped in the future floors to a negative age; no
	// clamping, and sub-second skew still rounds down to -1.
	now := time.UnixMilli(100000)
	got := Evaluate(100500, true, now)
	assert.Equal(t, int64(-1), got.Seconds)
	assert.Equal(t, TierOnlineRecent, got.Tier)

	got = Evaluate(105000, true, now)
	assert.Equal(t, int64(-5), got.Seconds)
}

func TestEvaluateSampleNil(t *testing.T) {
	got := EvaluateSample(nil, time.Now())
	assert.False(t, got.Known)
	assert.Equal(t, TierNoHeartbeat, got.Tier)
}

func TestStoreUpdateAndSnapshot(t *testing.T) {
	s := NewStore()

	s.Update("1", Sample{IP: "10.0.0.11", PositionID: "1", TimestampMillis: 1000})
	s.Update("2", Sample{IP: "10.0.0.12", PositionID: "2", TimestampMillis: 2000})
	s.Update("1", Sample{IP: "10.0.0.11", PositionID: "1", TimestampMillis: 3000})

	got, ok := s.Get("1")
	assert.True(t, ok)
	assert.Equal(t, int64(3000), got.TimestampMillis)

	_, ok = s.Get("3")
	assert.False(t, ok)

	snap := s.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "10.0.0.12", snap["2"].IP)
}

func TestStoreIgnoresEmptyHardwareID(t *testing.T) {
	s := NewStore()
	s.Update("", Sample{IP: "10.0.0.1"})
	assert.Empty(t, s.Snapshot())
}
