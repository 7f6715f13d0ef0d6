// Package gitstatus tracks which code revision every drone is running and
// whether it matches the ground station's checkout.
package gitstatus

// Status is the git report a drone (or the GCS itself) serves: current
// branch, HEAD commit and its metadata, plus any uncommitted files.
type Status struct {
	Branch             string   `json:"branch"`
	Commit             string   `json:"commit"`
	CommitMessage      string   `json:"commit_message"`
	CommitDate         string   `json:"commit_date"`
	AuthorName         string   `json:"author_name"`
	AuthorEmail        string   `json:"author_email"`
	UncommittedChanges []string `json:"uncommitted_changes"`
}

// SyncState classifies a drone's revision against the GCS reference.
type SyncState string

const (
	// StatusUnavailable means the drone has not reported a git status at
	// all. Distinct from NotInSync: an unreachable drone is not "behind".
	StatusUnavailable SyncState = "status_unavailable"
	NotInSync         SyncState = "not_in_sync"
	InSync            SyncState = "in_sync"
)

// Compare decides sync purely on commit identity. No short-hash matching,
// no normalization: drones report full hashes and anything else is a drone
// bug we want to see, not paper over. A missing reference means nothing can
// be confirmed, which renders as not-in-sync.
func Compare(drone, ref *Status) SyncState {
	if drone == nil {
		return StatusUnavailable
	}
	if ref == nil {
		return NotInSync
	}
	if drone.Commit == ref.Commit {
		return InSync
	}
	return NotInSync
}
