package reports

import (
	"fmt"
	"strings"

	"annotation-stats/internal/annotations"
	"annotation-stats/internal/export"
	"annotation-stats/internal/stats"
)

// Kind names a report.
type Kind string

const (
	KindDisagreement Kind = "disagreement"
	KindPerspective  Kind = "perspective"
	KindAnnotators   Kind = "annotators"
	KindHistory      Kind = "history"
)

// Kinds lists every report kind.
var Kinds = []Kind{KindDisagreement, KindPerspective, KindAnnotators, KindHistory}

// ParseKind validates a report kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReport, raw)
}

// Filters are the caller-supplied report filters.
type Filters struct {
	Dataset     *int64
	Discussion  *int64
	Perspective *int64
	Member      MemberToken
	TimeRange   TimeRange
}

func (f Filters) source(member *int64) annotations.Filters {
	return annotations.Filters{
		Dataset:     f.Dataset,
		Discussion:  f.Discussion,
		Perspective: f.Perspective,
		Member:      member,
	}
}

// DisagreementEntry compares two annotators on one document. The forward
// direction uses Annotator1 as reference set, the reverse one Annotator2.
type DisagreementEntry struct {
	Document                      int64
	Annotator1                    int64
	Annotator2                    int64
	DisagreementRate              float64
	DisagreementCategories        []string
	ReverseDisagreementRate       float64
	ReverseDisagreementCategories []string
}

// Fields implements export.Record.
func (e DisagreementEntry) Fields() []export.Field {
	return []export.Field{
		{Key: "document", Value: e.Document},
		{Key: "annotator1", Value: e.Annotator1},
		{Key: "annotator2", Value: e.Annotator2},
		{Key: "disagreementRate", Value: e.DisagreementRate},
		{Key: "disagreementCategories", Value: nonNil(e.DisagreementCategories)},
		{Key: "reverseDisagreementRate", Value: e.ReverseDisagreementRate},
		{Key: "reverseDisagreementCategories", Value: nonNil(e.ReverseDisagreementCategories)},
	}
}

// MarshalJSON implements json.Marshaler.
func (e DisagreementEntry) MarshalJSON() ([]byte, error) {
	return export.Object(e.Fields()).MarshalJSON()
}

// PerspectiveEntry is the category distribution of one annotator on one document.
type PerspectiveEntry struct {
	Document   int64
	Annotator  int64
	Categories []stats.CategoryStat
}

// Fields implements export.Record. Categories are flattened into
// <category>_frequency and <category>_percentage columns.
func (e PerspectiveEntry) Fields() []export.Field {
	out := make([]export.Field, 0, 2+2*len(e.Categories))
	out = append(out,
		export.Field{Key: "document", Value: e.Document},
		export.Field{Key: "annotator", Value: e.Annotator},
	)
	for _, c := range e.Categories {
		out = append(out,
			export.Field{Key: c.Category + "_frequency", Value: c.Frequency},
			export.Field{Key: c.Category + "_percentage", Value: c.Percentage},
		)
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (e PerspectiveEntry) MarshalJSON() ([]byte, error) {
	return export.Object(e.Fields()).MarshalJSON()
}

// CategoryCount is a category tally within one document. Percentage carries
// one decimal, e.g. "50.0".
type CategoryCount struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// DatasetBreakdown is a member's category tally on one document.
type DatasetBreakdown struct {
	Document   int64           `json:"document"`
	Categories []CategoryCount `json:"categories"`
}

// AnnotatorEntry summarizes one project member.
type AnnotatorEntry struct {
	Annotator  string
	Total      int
	Categories string
	Datasets   []DatasetBreakdown
}

// Fields implements export.Record.
func (e AnnotatorEntry) Fields() []export.Field {
	datasets := e.Datasets
	if datasets == nil {
		datasets = []DatasetBreakdown{}
	}
	return []export.Field{
		{Key: "annotator", Value: e.Annotator},
		{Key: "total", Value: e.Total},
		{Key: "categories", Value: e.Categories},
		{Key: "datasets", Value: datasets},
	}
}

// MarshalJSON implements json.Marshaler.
func (e AnnotatorEntry) MarshalJSON() ([]byte, error) {
	return export.Object(e.Fields()).MarshalJSON()
}

// HistoryEntry is one annotation event in chronological order.
type HistoryEntry struct {
	Date      string
	Annotator string
	Action    string
	Changes   string
}

// Fields implements export.Record.
func (e HistoryEntry) Fields() []export.Field {
	return []export.Field{
		{Key: "date", Value: e.Date},
		{Key: "annotator", Value: e.Annotator},
		{Key: "action", Value: e.Action},
		{Key: "changes", Value: e.Changes},
	}
}

// MarshalJSON implements json.Marshaler.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return export.Object(e.Fields()).MarshalJSON()
}

// Report is the result of a builder: an ordered list of items.
type Report[T export.Record] struct {
	Items []T `json:"items"`
}

// Count returns the number of items.
func (r Report[T]) Count() int {
	return len(r.Items)
}

// Render serializes the items in the given format.
func (r Report[T]) Render(format export.Format) (export.File, error) {
	return export.Render(format, "report", r.Items)
}

// Built is a report of any kind, ready to serialize.
type Built interface {
	Count() int
	Render(format export.Format) (export.File, error)
}

// MemberDisagreement is the mean disagreement of one member against the
// other annotators of the documents they share.
type MemberDisagreement struct {
	Member           int64   `json:"member"`
	DisagreementRate float64 `json:"disagreementRate"`
	Comparisons      int     `json:"comparisons"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
