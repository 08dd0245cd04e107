package vcs

import "context"

// MockInspector is an Inspector with pluggable behavior for tests.
type MockInspector struct {
	CombinedStatsFunc     func(ctx context.Context) Stats
	HeadRevisionFunc      func(ctx context.Context) (string, bool)
	LastCommitSummaryFunc func(ctx context.Context) (string, bool)
}

// CombinedStats calls CombinedStatsFunc if set, otherwise returns zero stats.
func (m *MockInspector) CombinedStats(ctx context.Context) Stats {
	if m.CombinedStatsFunc != nil {
		return m.CombinedStatsFunc(ctx)
	}
	return Stats{}
}

// HeadRevision calls HeadRevisionFunc if set, otherwise reports no revision.
func (m *MockInspector) HeadRevision(ctx context.Context) (string, bool) {
	if m.HeadRevisionFunc != nil {
		return m.HeadRevisionFunc(ctx)
	}
	return "", false
}

// LastCommitSummary calls LastCommitSummaryFunc if set, otherwise reports none.
func (m *MockInspector) LastCommitSummary(ctx context.Context) (string, bool) {
	if m.LastCommitSummaryFunc != nil {
		return m.LastCommitSummaryFunc(ctx)
	}
	return "", false
}
