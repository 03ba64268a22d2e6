// Package stats holds the pure aggregation primitives behind the reports:
// grouping, pairwise disagreement and category distributions.
package stats

import (
	"sort"

	"annotation-stats/internal/annotations"
)

// DocumentGroup holds the records of one document in input order.
type DocumentGroup struct {
	Document int64
	Records  []annotations.Annotation
}

// MemberGroup holds one member's records on a document in input order.
type MemberGroup struct {
	Member  int64
	Records []annotations.Annotation
}

// DocumentMembers holds the per-member partition of one document.
type DocumentMembers struct {
	Document int64
	Members  []MemberGroup
}

// GroupByDocument partitions records by document. Groups are ordered by
// ascending document id; records keep their input order.
func GroupByDocument(records []annotations.Annotation) []DocumentGroup {
	index := make(map[int64]int)
	groups := []DocumentGroup{}
	for _, r := range records {
		i, ok := index[r.Document]
		if !ok {
			i = len(groups)
			index[r.Document] = i
			groups = append(groups, DocumentGroup{Document: r.Document})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Document < groups[j].Document
	})
	return groups
}

// GroupByDocumentAndMember partitions records by document and then by member.
// Documents and members are ordered by ascending id.
func GroupByDocumentAndMember(records []annotations.Annotation) []DocumentMembers {
	byDoc := GroupByDocument(records)
	out := make([]DocumentMembers, 0, len(byDoc))
	for _, doc := range byDoc {
		out = append(out, DocumentMembers{
			Document: doc.Document,
			Members:  groupByMember(doc.Records),
		})
	}
	return out
}

func groupByMember(records []annotations.Annotation) []MemberGroup {
	index := make(map[int64]int)
	groups := []MemberGroup{}
	for _, r := range records {
		i, ok := index[r.Member]
		if !ok {
			i = len(groups)
			index[r.Member] = i
			groups = append(groups, MemberGroup{Member: r.Member})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Member < groups[j].Member
	})
	return groups
}

// FilterByMember returns the records produced by member, in input order.
func FilterByMember(records []annotations.Annotation, member int64) []annotations.Annotation {
	out := []annotations.Annotation{}
	for _, r := range records {
		if r.Member == member {
			out = append(out, r)
		}
	}
	return out
}
