package orchestrator

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

const (
	GroupBySymbol   = "symbol"
	MeasureDuration = "duration"
)

// discover lists the regular files of dir whose base name matches pattern.
func discover(dir string, pattern *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !pattern.MatchString(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Summarize computes count, max, min, mean and sample SD of every measure per
// group. Records without a group are left out; a measure that was not taken
// on a record is not counted for it.
func Summarize(records []Record, groupBy string, precision int) []StatRow {
	if groupBy == "" {
		groupBy = GroupBySymbol
	}
	groups := map[string]map[string][]float64{}
	for _, r := range records {
		g := groupKey(r, groupBy)
		if g == "" {
			continue
		}
		m := groups[g]
		if m == nil {
			m = map[string][]float64{}
			groups[g] = m
		}
		m[MeasureDuration] = append(m[MeasureDuration], r.Duration())
		for name, v := range r.Fields {
			m[name] = append(m[name], v)
		}
	}

	var rows []StatRow
	for _, g := range sortedKeys(groups) {
		m := groups[g]
		for _, name := range sortedKeys(m) {
			row := describe(m[name], precision)
			row.GroupBy, row.Group, row.Measure = groupBy, g, name
			rows = append(rows, row)
		}
	}
	return rows
}

func groupKey(r Record, groupBy string) string {
	if groupBy == GroupBySymbol {
		return r.Key()
	}
	return r.Classes[groupBy]
}

func describe(vals []float64, precision int) StatRow {
	row := StatRow{Count: len(vals)}
	if len(vals) == 0 {
		return row
	}
	row.Min, row.Max = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, v := range vals {
		sum += v
		row.Min = math.Min(row.Min, v)
		row.Max = math.Max(row.Max, v)
	}
	mean := sum / float64(len(vals))
	row.Mean = mean
	if len(vals) > 1 {
		ss := 0.0
		for _, v := range vals {
			ss += (v - mean) * (v - mean)
		}
		row.SD = math.Sqrt(ss / float64(len(vals)-1))
		row.HasSD = true
	}
	row.Max = round(row.Max, precision)
	row.Min = round(row.Min, precision)
	row.Mean = round(row.Mean, precision)
	row.SD = round(row.SD, precision)
	return row
}

func round(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fieldNames lists every decomposed field seen across records.
func fieldNames(records []Record) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		for k := range r.Fields {
			seen[k] = struct{}{}
		}
	}
	return sortedKeys(seen)
}
