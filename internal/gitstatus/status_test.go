package gitstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	ref := &Status{Commit: "abc123"}

	tests := []struct {
		name  string
		drone *Status
		ref   *Status
		want  SyncState
	}{
		{"matching commits", &Status{Commit: "abc123"}, ref, InSync},
		{"different commits", &Status{Commit: "def456"}, ref, NotInSync},
		{"drone status missing", nil, ref, StatusUnavailable},
		{"drone missing and ref missing", nil, nil, StatusUnavailable},
		{"no reference to confirm against", &Status{Commit: "abc123"}, nil, NotInSync},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.drone, tt.ref))
		})
	}
}

func TestCompareNoShortHashMatching(t *testing.T) {
	// A truncated hash is not the same commit. Byte equality only.
	drone := &Status{Commit: "abc123"}
	ref := &Status{Commit: "abc123def4567890"}
	assert.Equal(t, NotInSync, Compare(drone, ref))
}

func TestSummarize(t *testing.T) {
	p := NewPoller(7070, 0, 0)
	p.statuses["1"] = &Status{Branch: "main", Commit: "abc"}
	p.statuses["2"] = &Status{Branch: "main", Commit: "abc", UncommittedChanges: []string{" M config.csv"}}
	p.statuses["3"] = &Status{Branch: "dev", Commit: "def"}

	got := p.Summarize(&Status{Commit: "abc"})

	assert.Equal(t, 3, got.Reported)
	assert.Equal(t, 2, got.InSync)
	assert.Equal(t, 1, got.OutOfSync)
	assert.Equal(t, 1, got.Dirty)
	assert.Equal(t, map[string]int{"main": 2, "dev": 1}, got.ByBranch)
	assert.False(t, got.FullySynced)
}

func TestSummarizeEmptyFleetIsNeverFullySynced(t *testing.T) {
	p := NewPoller(7070, 0, 0)
	got := p.Summarize(&Status{Commit: "abc"})
	assert.False(t, got.FullySynced)
	assert.Zero(t, got.Reported)
}
