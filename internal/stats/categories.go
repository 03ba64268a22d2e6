package stats

import "annotation-stats/internal/annotations"

// CategoryStat is the frequency of one category within a subset of records.
type CategoryStat struct {
	Category   string  `json:"category"`
	Frequency  int     `json:"frequency"`
	Percentage float64 `json:"percentage"`
}

// CategoryStatistics counts each category in records, in first-appearance
// order. Percentages are relative to len(records).
func CategoryStatistics(records []annotations.Annotation) []CategoryStat {
	index := make(map[string]int)
	out := []CategoryStat{}
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategoryStat{Category: r.Category})
		}
		out[i].Frequency++
	}
	for i := range out {
		out[i].Percentage = Percentage(out[i].Frequency, len(records))
	}
	return out
}

// Percentage returns part/total*100, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// DistinctCategories lists the categories of records in first-appearance order.
func DistinctCategories(records []annotations.Annotation) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return out
}
