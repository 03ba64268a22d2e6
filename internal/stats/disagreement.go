package stats

import "annotation-stats/internal/annotations"

// Pair is an unordered annotator pair. First appeared before Second in the
// document's records.
type Pair struct {
	First  int64
	Second int64
}

// Direction is the disagreement of a reference annotator against another.
type Direction struct {
	Rate       float64
	Categories []string
}

// Comparison carries both directions of a pairwise comparison. The rate is
// asymmetric: Forward uses the first argument as reference set, Reverse the second.
type Comparison struct {
	Forward Direction
	Reverse Direction
}

// AnnotatorPairs lists every unordered pair of distinct members found in
// records, in first-appearance order (n members yield n*(n-1)/2 pairs).
func AnnotatorPairs(records []annotations.Annotation) []Pair {
	seen := make(map[int64]struct{})
	var annotators []int64
	for _, r := range records {
		if _, ok := seen[r.Member]; ok {
			continue
		}
		seen[r.Member] = struct{}{}
		annotators = append(annotators, r.Member)
	}

	pairs := []Pair{}
	for i := 0; i < len(annotators); i++ {
		for j := i + 1; j < len(annotators); j++ {
			pairs = append(pairs, Pair{First: annotators[i], Second: annotators[j]})
		}
	}
	return pairs
}

// Match reports whether two records carry the same category over the same span.
func Match(a, b annotations.Annotation) bool {
	return a.Category == b.Category && a.Start == b.Start && a.End == b.End
}

// DisagreementRate is the share of ref records without a match in other.
// An empty ref yields 0.
func DisagreementRate(ref, other []annotations.Annotation) float64 {
	unmatched := 0
	for _, a := range ref {
		if !hasMatch(a, other) {
			unmatched++
		}
	}
	return float64(unmatched) / float64(max(1, len(ref)))
}

// DisagreementCategories lists the distinct categories of ref records without a
// match in other, in first-appearance order.
func DisagreementCategories(ref, other []annotations.Annotation) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, a := range ref {
		if hasMatch(a, other) {
			continue
		}
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		out = append(out, a.Category)
	}
	return out
}

// Compare computes both disagreement directions between two annotators'
// records on the same document.
func Compare(a, b []annotations.Annotation) Comparison {
	return Comparison{
		Forward: Direction{Rate: DisagreementRate(a, b), Categories: DisagreementCategories(a, b)},
		Reverse: Direction{Rate: DisagreementRate(b, a), Categories: DisagreementCategories(b, a)},
	}
}

func hasMatch(a annotations.Annotation, candidates []annotations.Annotation) bool {
	for _, b := range candidates {
		if Match(a, b) {
			return true
		}
	}
	return false
}
