// Package vcs inspects the working repository between and during loop
// iterations. Every query degrades to an empty result on failure: repository
// state is observed for display and progress detection only and is never a
// reason to stop the loop.
package vcs

import "context"

// Stats summarizes uncommitted changes.
type Stats struct {
	FilesChanged int `json:"files_changed"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
}

// IsZero reports whether no file has changed.
func (s Stats) IsZero() bool {
	return s.FilesChanged == 0
}

// Inspector is the read-only view of the repository the loop depends on.
type Inspector interface {
	// CombinedStats aggregates staged and unstaged changes per path.
	CombinedStats(ctx context.Context) Stats

	// HeadRevision returns the current commit id, or false when unavailable.
	HeadRevision(ctx context.Context) (string, bool)

	// LastCommitSummary returns the subject line of HEAD, or false when unavailable.
	LastCommitSummary(ctx context.Context) (string, bool)
}
