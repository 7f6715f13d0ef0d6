package gitstatus

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// gcsCacheTTL bounds how often the dashboard shells out to git for its own
// status. Every card comparison reads the reference, so this sits in front
// of a fork+exec.
const gcsCacheTTL = 10 * time.Second

// GCSReporter reads the ground station's own git status from its working
// tree. This is the reference every drone is compared against.
type GCSReporter struct {
	repoDir string

	mu       sync.Mutex
	cached   *Status
	cachedAt time.Time
}

func NewGCSReporter(repoDir string) *GCSReporter {
	return &GCSReporter{repoDir: repoDir}
}

// Report returns the GCS status, refreshing from git when the cache has
// expired. Returns nil (not an error surface for callers) when the repo
// cannot be read; comparisons then degrade to NotInSync.
func (r *GCSReporter) Report() *Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && time.Since(r.cachedAt) < gcsCacheTTL {
		copied := *r.cached
		return &copied
	}

	status, err := r.read()
	if err != nil {
		return nil
	}

	r.cached = status
	r.cachedAt = time.Now()
	copied := *status
	return &copied
}

func (r *GCSReporter) read() (*Status, error) {
	branch, err := r.git("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}
	commit, err := r.git("rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}

	// Subject, ISO date, author name and email in one call.
	meta, err := r.git("log", "-1", "--pretty=format:%s%n%ci%n%an%n%ae")
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(meta, "\n", 4)
	for len(parts) < 4 {
		parts = append(parts, "")
	}

	status := &Status{
		Branch:             branch,
		Commit:             commit,
		CommitMessage:      parts[0],
		CommitDate:         parts[1],
		AuthorName:         parts[2],
		AuthorEmail:        parts[3],
		UncommittedChanges: []string{},
	}

	porcelain, err := r.git("status", "--porcelain")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(porcelain, "\n") {
		if strings.TrimSpace(line) != "" {
			status.UncommittedChanges = append(status.UncommittedChanges, line)
		}
	}

	return status, nil
}

func (r *GCSReporter) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}
