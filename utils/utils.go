package utils

import (
	"math"
	"sort"
	"strings"
)

// MergeIntervals collapses overlapping [start, end] intervals into a minimal
// sorted disjoint set covering the same range. Used to merge the watched
// video time ranges reported by multiple playback sessions.
func MergeIntervals(intervals [][]float64) [][]float64 {
	if len(intervals) < 2 {
		return intervals
	}

	sorted := make([][]float64, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][0] < sorted[j][0]
	})

	merged := [][]float64{{sorted[0][0], sorted[0][1]}}
	for _, interval := range sorted[1:] {
		last := merged[len(merged)-1]
		if interval[0] <= last[1] {
			last[1] = math.Max(last[1], interval[1])
		} else {
			merged = append(merged, []float64{interval[0], interval[1]})
		}
	}
	return merged
}

// WatchedPercent computes how much of a video the merged watched ranges
// cover, as a percentage rounded to one decimal place.
func WatchedPercent(intervals [][]float64, duration float64) float64 {
	if duration <= 0 {
		return 0
	}

	watched := 0.0
	for _, interval := range MergeIntervals(intervals) {
		watched += interval[1] - interval[0]
	}
	return math.Round(watched/duration*100*10) / 10
}

// IntervalsFromJSON converts the JSON representation of watched ranges
// ([][2]numbers decoded as []interface{}) into float pairs. Malformed
// entries are skipped.
func IntervalsFromJSON(raw interface{}) [][]float64 {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	intervals := make([][]float64, 0, len(items))
	for _, item := range items {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			continue
		}
		start, okStart := toFloat(pair[0])
		end, okEnd := toFloat(pair[1])
		if !okStart || !okEnd {
			continue
		}
		intervals = append(intervals, []float64{start, end})
	}
	return intervals
}

// IntervalsToJSON converts float pairs back into a JSON-storable value.
func IntervalsToJSON(intervals [][]float64) []interface{} {
	items := make([]interface{}, 0, len(intervals))
	for _, interval := range intervals {
		items = append(items, []interface{}{interval[0], interval[1]})
	}
	return items
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Slugify turns a title into a URL-safe slug. A numeric suffix is the
// caller's job when uniqueness requires one.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
