package stats

import (
	"errors"
	"testing"
)

func TestParseSortKey(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		expected SortKey
		invalid  bool
	}{
		{name: "empty defaults to runs this year", raw: "", expected: SortRunsThisYear},
		{name: "runs this year", raw: "runsThisYear", expected: SortRunsThisYear},
		{name: "lifetime runs", raw: "lifetimeRuns", expected: SortLifetimeRuns},
		{name: "total distance", raw: "totalDistance", expected: SortTotalDistance},
		{name: "total laps", raw: "totalLaps", expected: SortTotalLaps},
		{name: "unknown key", raw: "bogus", invalid: true},
		{name: "wrong case", raw: "RUNSTHISYEAR", invalid: true},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			key, err := ParseSortKey(testCase.raw)
			if testCase.invalid {
				if !errors.Is(err, ErrUnknownSortKey) {
					t.Fatalf("expected ErrUnknownSortKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, key)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		expected int
	}{
		{name: "empty defaults", raw: "", expected: 100},
		{name: "plain number", raw: "50", expected: 50},
		{name: "clamped to maximum", raw: "5000", expected: 1000},
		{name: "unparsable defaults", raw: "abc", expected: 100},
		{name: "zero defaults", raw: "0", expected: 100},
		{name: "negative defaults", raw: "-3", expected: 100},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			if limit := ParseLimit(testCase.raw); limit != testCase.expected {
				t.Fatalf("expected %d, got %d", testCase.expected, limit)
			}
		})
	}
}
