package vcs

import (
	"strconv"
	"strings"
)

// FileStats holds line counts for a single path.
type FileStats struct {
	Insertions int
	Deletions  int
}

// ParseNumstat parses `git diff --numstat` output into per-path counts.
//
// Each line is "<added>\t<deleted>\t<path>". Everything after the second tab
// is the path, so paths that themselves contain tabs stay intact. Counts that
// are not numbers (git prints "-" for binary files) count as zero. Repeated
// paths are summed.
func ParseNumstat(output string) map[string]FileStats {
	byPath := make(map[string]FileStats)
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return byPath
	}

	for _, line := range strings.Split(trimmed, "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		path := strings.TrimSpace(strings.Join(parts[2:], "\t"))
		if path == "" {
			continue
		}
		existing := byPath[path]
		existing.Insertions += parseCount(parts[0])
		existing.Deletions += parseCount(parts[1])
		byPath[path] = existing
	}
	return byPath
}

// parseCount reads a leading decimal integer; anything else is zero.
func parseCount(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return n
}

// Merge sums per-path counts from every input into a new map.
func Merge(sets ...map[string]FileStats) map[string]FileStats {
	merged := make(map[string]FileStats)
	for _, set := range sets {
		for path, fs := range set {
			existing := merged[path]
			existing.Insertions += fs.Insertions
			existing.Deletions += fs.Deletions
			merged[path] = existing
		}
	}
	return merged
}

// Summarize totals per-path counts. FilesChanged is the number of distinct paths.
func Summarize(byPath map[string]FileStats) Stats {
	var s Stats
	for _, fs := range byPath {
		s.FilesChanged++
		s.Insertions += fs.Insertions
		s.Deletions += fs.Deletions
	}
	return s
}
