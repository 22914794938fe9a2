package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// UserStats is the derived, never-persisted activity summary for one rider.
// TotalLaps and LifetimeRuns are the same sum under two names; both are kept
// in the output contract.
type UserStats struct {
	UserID        string  `json:"userId"`
	RunsThisYear  int64   `json:"runsThisYear"`
	LifetimeRuns  int64   `json:"lifetimeRuns"`
	TotalDistance float64 `json:"totalDistance"`
	TotalLaps     int64   `json:"totalLaps"`
}

// LeaderboardEntry is one ranked row of the global leaderboard. All four
// metrics are always present so clients can re-sort without a second call.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"userId"`
	UserName      string  `json:"userName"`
	RunsThisYear  int64   `json:"runsThisYear"`
	LifetimeRuns  int64   `json:"lifetimeRuns"`
	TotalDistance float64 `json:"totalDistance"`
	TotalLaps     int64   `json:"totalLaps"`
}

// SortKey selects which metric orders the leaderboard.
type SortKey string

const (
	// SortRunsThisYear ranks by laps logged in the current calendar year.
	SortRunsThisYear SortKey = "runsThisYear"
	// SortLifetimeRuns ranks by lifetime lap count.
	SortLifetimeRuns SortKey = "lifetimeRuns"
	// SortTotalDistance ranks by cumulative distance in meters.
	SortTotalDistance SortKey = "totalDistance"
	// SortTotalLaps ranks by lifetime lap count under its alternate name.
	SortTotalLaps SortKey = "totalLaps"
)

// ErrUnknownSortKey indicates a leaderboard type outside the enumeration.
var ErrUnknownSortKey = errors.New("stats: unknown leaderboard type")

// ParseSortKey maps the raw query value to a SortKey. Absent input selects
// the default; unrecognized input is an error, never a silent default.
func ParseSortKey(raw string) (SortKey, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SortRunsThisYear, nil
	}
	switch SortKey(trimmed) {
	case SortRunsThisYear, SortLifetimeRuns, SortTotalDistance, SortTotalLaps:
		return SortKey(trimmed), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownSortKey, trimmed)
	}
}

const (
	defaultLeaderboardLimit = 100
	maxLeaderboardLimit     = 1000
)

// ParseLimit clamps the raw query value into [1, 1000]. Absent, unparsable,
// or non-positive input falls back to the default of 100.
func ParseLimit(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultLeaderboardLimit
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed <= 0 {
		return defaultLeaderboardLimit
	}
	if parsed > maxLeaderboardLimit {
		return maxLeaderboardLimit
	}
	return parsed
}
