package projection

import (
	"math"
	"strconv"
	"strings"
)

// Helper to safely read a per-year driver; missing years count as zero
func valueAt(series []float64, i int) float64 {
	if i >= 0 && i < len(series) {
		return series[i]
	}
	return 0
}

// parseCell never fails: blank, malformed and non-finite input all become 0.
// Parsing is whole-cell, so "10%" reads as 0 rather than 10.
func parseCell(list []string, i int) float64 {
	raw := ""
	if i < len(list) {
		raw = list[i]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// BuildArrayFromList converts per-year form inputs into a series of exactly `years` values.
func BuildArrayFromList(years int, list []string) []float64 {
	if years <= 0 {
		return []float64{}
	}
	out := make([]float64, years)
	for i := range out {
		out[i] = parseCell(list, i)
	}
	return out
}

// BuildIndividualPercentsMap is BuildArrayFromList keyed by year index.
func BuildIndividualPercentsMap(years int, list []string) map[int]float64 {
	out := make(map[int]float64, max(years, 0))
	for i := 0; i < years; i++ {
		out[i] = parseCell(list, i)
	}
	return out
}

// ResizeStringArray keeps existing inputs when the horizon changes, padding with "".
func ResizeStringArray(current []string, newLength int) []string {
	if newLength <= 0 {
		return []string{}
	}
	out := make([]string, newLength)
	copy(out, current)
	return out
}
