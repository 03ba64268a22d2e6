package reports

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"annotation-stats/internal/annotations"
	"annotation-stats/internal/members"
	"annotation-stats/internal/shared/metrics"
	"annotation-stats/internal/shared/telemetry"
	"annotation-stats/internal/stats"
)

const (
	// DefaultDateLayout renders history dates like an en-US locale string.
	DefaultDateLayout = "1/2/2006, 3:04:05 PM"

	historyAction = "Annotation"
)

// Service builds reports from annotation and member sources. It keeps no
// state between calls; every build fetches its own records.
type Service struct {
	Annotations annotations.Source
	Members     members.Source
	Location    *time.Location
	DateLayout  string
	Now         func() time.Time
}

// Build dispatches to the builder for kind.
func (s *Service) Build(ctx context.Context, kind Kind, projectID int64, f Filters) (Built, error) {
	switch kind {
	case KindDisagreement:
		r, err := s.Disagreement(ctx, projectID, f)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindPerspective:
		r, err := s.Perspective(ctx, projectID, f)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindAnnotators:
		r, err := s.Annotators(ctx, projectID, f)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindHistory:
		r, err := s.History(ctx, projectID, f)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReport, string(kind))
	}
}

// Disagreement compares every annotator pair on every document.
func (s *Service) Disagreement(ctx context.Context, projectID int64, f Filters) (Report[DisagreementEntry], error) {
	start := time.Now()
	records, err := s.fetch(ctx, KindDisagreement, projectID, f)
	if err != nil {
		return Report[DisagreementEntry]{}, err
	}

	items := []DisagreementEntry{}
	for _, doc := range stats.GroupByDocument(records) {
		for _, p := range stats.AnnotatorPairs(doc.Records) {
			cmp := stats.Compare(
				stats.FilterByMember(doc.Records, p.First),
				stats.FilterByMember(doc.Records, p.Second),
			)
			items = append(items, DisagreementEntry{
				Document:                      doc.Document,
				Annotator1:                    p.First,
				Annotator2:                    p.Second,
				DisagreementRate:              cmp.Forward.Rate,
				DisagreementCategories:        cmp.Forward.Categories,
				ReverseDisagreementRate:       cmp.Reverse.Rate,
				ReverseDisagreementCategories: cmp.Reverse.Categories,
			})
		}
	}

	s.done(KindDisagreement, projectID, start, len(items))
	return Report[DisagreementEntry]{Items: items}, nil
}

// Perspective computes the category distribution of each annotator on each document.
func (s *Service) Perspective(ctx context.Context, projectID int64, f Filters) (Report[PerspectiveEntry], error) {
	start := time.Now()
	records, err := s.fetch(ctx, KindPerspective, projectID, f)
	if err != nil {
		return Report[PerspectiveEntry]{}, err
	}

	items := []PerspectiveEntry{}
	for _, doc := range stats.GroupByDocumentAndMember(records) {
		for _, m := range doc.Members {
			items = append(items, PerspectiveEntry{
				Document:   doc.Document,
				Annotator:  m.Member,
				Categories: stats.CategoryStatistics(m.Records),
			})
		}
	}

	s.done(KindPerspective, projectID, start, len(items))
	return Report[PerspectiveEntry]{Items: items}, nil
}

// Annotators summarizes every project member, including members without
// annotations.
func (s *Service) Annotators(ctx context.Context, projectID int64, f Filters) (Report[AnnotatorEntry], error) {
	start := time.Now()
	if projectID <= 0 {
		return Report[AnnotatorEntry]{}, fmt.Errorf("%w: project id must be positive", ErrInvalidInput)
	}

	ms, err := s.Members.ListMembers(ctx, projectID)
	if err != nil {
		s.fetchFailed(KindAnnotators, projectID, f, "members", err)
		return Report[AnnotatorEntry]{}, err
	}

	records := []annotations.Annotation{}
	member, resolved := s.resolveAgainst(KindAnnotators, projectID, f.Member, ms)
	if resolved {
		page, err := s.Annotations.ListAnnotations(ctx, projectID, f.source(member))
		if err != nil {
			s.fetchFailed(KindAnnotators, projectID, f, "annotations", err)
			return Report[AnnotatorEntry]{}, err
		}
		records = page.Results
	}

	items := make([]AnnotatorEntry, 0, len(ms))
	for _, m := range ms {
		own := stats.FilterByMember(records, m.ID)
		datasets := []DatasetBreakdown{}
		for _, doc := range stats.GroupByDocument(own) {
			datasets = append(datasets, DatasetBreakdown{
				Document:   doc.Document,
				Categories: categoryCounts(doc.Records),
			})
		}
		items = append(items, AnnotatorEntry{
			Annotator:  m.DisplayName(),
			Total:      len(own),
			Categories: strings.Join(stats.DistinctCategories(own), ", "),
			Datasets:   datasets,
		})
	}

	s.done(KindAnnotators, projectID, start, len(items))
	return Report[AnnotatorEntry]{Items: items}, nil
}

// History lists annotation events ordered by their last update.
func (s *Service) History(ctx context.Context, projectID int64, f Filters) (Report[HistoryEntry], error) {
	start := time.Now()
	records, err := s.fetch(ctx, KindHistory, projectID, f)
	if err != nil {
		return Report[HistoryEntry]{}, err
	}

	sorted := make([]annotations.Annotation, 0, len(records))
	if since, bounded := f.TimeRange.Since(s.now()); bounded {
		for _, r := range records {
			if !r.UpdatedAt.Before(since) {
				sorted = append(sorted, r)
			}
		}
	} else {
		sorted = append(sorted, records...)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.Before(sorted[j].UpdatedAt)
	})

	items := make([]HistoryEntry, 0, len(sorted))
	for _, r := range sorted {
		items = append(items, HistoryEntry{
			Date:      s.formatDate(r.UpdatedAt),
			Annotator: strconv.FormatInt(r.Member, 10),
			Action:    historyAction,
			Changes:   fmt.Sprintf("Category: %s, Text: %s", r.Category, r.Text),
		})
	}

	s.done(KindHistory, projectID, start, len(items))
	return Report[HistoryEntry]{Items: items}, nil
}

// AnnotatorDisagreementRate averages the forward disagreement rate of member
// against every other annotator of the documents it annotated. It is 0 when
// the member shares no document with anyone.
func (s *Service) AnnotatorDisagreementRate(ctx context.Context, projectID int64, member MemberToken, f Filters) (MemberDisagreement, error) {
	if projectID <= 0 {
		return MemberDisagreement{}, fmt.Errorf("%w: project id must be positive", ErrInvalidInput)
	}
	if member.IsZero() {
		return MemberDisagreement{}, fmt.Errorf("%w: member is required", ErrInvalidInput)
	}
	memberID, ok, err := s.memberFilter(ctx, KindDisagreement, projectID, member, f)
	if err != nil {
		return MemberDisagreement{}, err
	}
	if !ok {
		return MemberDisagreement{}, fmt.Errorf("%w: unknown member %q", ErrInvalidInput, member.String())
	}

	f.Member = MemberToken{}
	records, err := s.fetch(ctx, KindDisagreement, projectID, f)
	if err != nil {
		return MemberDisagreement{}, err
	}

	total := 0.0
	comparisons := 0
	for _, doc := range stats.GroupByDocument(records) {
		own := stats.FilterByMember(doc.Records, *memberID)
		if len(own) == 0 {
			continue
		}
		for _, p := range stats.AnnotatorPairs(doc.Records) {
			var other int64
			switch *memberID {
			case p.First:
				other = p.Second
			case p.Second:
				other = p.First
			default:
				continue
			}
			total += stats.DisagreementRate(own, stats.FilterByMember(doc.Records, other))
			comparisons++
		}
	}

	rate := 0.0
	if comparisons > 0 {
		rate = total / float64(comparisons)
	}
	return MemberDisagreement{Member: *memberID, DisagreementRate: rate, Comparisons: comparisons}, nil
}

// fetch lists the filtered annotations of a project. Source errors are
// logged and returned unchanged.
func (s *Service) fetch(ctx context.Context, kind Kind, projectID int64, f Filters) ([]annotations.Annotation, error) {
	if projectID <= 0 {
		return nil, fmt.Errorf("%w: project id must be positive", ErrInvalidInput)
	}
	member, ok, err := s.memberFilter(ctx, kind, projectID, f.Member, f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []annotations.Annotation{}, nil
	}
	page, err := s.Annotations.ListAnnotations(ctx, projectID, f.source(member))
	if err != nil {
		s.fetchFailed(kind, projectID, f, "annotations", err)
		return nil, err
	}
	if page.Results == nil {
		return []annotations.Annotation{}, nil
	}
	return page.Results, nil
}

// memberFilter turns a member token into a source filter. Id tokens are used
// as-is; username tokens are looked up in the member source. ok is false when
// a username matches no member, in which case nothing should be fetched.
func (s *Service) memberFilter(ctx context.Context, kind Kind, projectID int64, token MemberToken, f Filters) (*int64, bool, error) {
	switch token.Kind {
	case TokenNone:
		return nil, true, nil
	case TokenID:
		id := token.ID
		return &id, true, nil
	}
	if s.Members == nil {
		return nil, false, nil
	}
	ms, err := s.Members.ListMembers(ctx, projectID)
	if err != nil {
		s.fetchFailed(kind, projectID, f, "members", err)
		return nil, false, err
	}
	member, ok := s.resolveAgainst(kind, projectID, token, ms)
	return member, ok, nil
}

func (s *Service) resolveAgainst(kind Kind, projectID int64, token MemberToken, ms []members.Member) (*int64, bool) {
	if token.IsZero() {
		return nil, true
	}
	id, ok := token.Resolve(ms)
	if !ok {
		telemetry.Warn("reports.member_unresolved", map[string]any{
			"kind":       string(kind),
			"project_id": projectID,
			"member":     token.String(),
		})
		return nil, false
	}
	return &id, true
}

func (s *Service) fetchFailed(kind Kind, projectID int64, f Filters, source string, err error) {
	metrics.IncReportFailed(string(kind))
	telemetry.Error("reports.fetch_failed", map[string]any{
		"kind":        string(kind),
		"project_id":  projectID,
		"source":      source,
		"dataset":     f.Dataset,
		"discussion":  f.Discussion,
		"perspective": f.Perspective,
		"member":      f.Member.String(),
		"error":       err,
	})
}

func (s *Service) done(kind Kind, projectID int64, start time.Time, items int) {
	elapsed := time.Since(start)
	metrics.IncReportBuilt(string(kind))
	metrics.ObserveReportDuration(string(kind), elapsed)
	telemetry.Info("reports.built", map[string]any{
		"kind":        string(kind),
		"project_id":  projectID,
		"items":       items,
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
	})
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) formatDate(t time.Time) string {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := s.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.In(loc).Format(layout)
}

func categoryCounts(records []annotations.Annotation) []CategoryCount {
	statsByCategory := stats.CategoryStatistics(records)
	out := make([]CategoryCount, 0, len(statsByCategory))
	for _, c := range statsByCategory {
		out = append(out, CategoryCount{
			Name:       c.Category,
			Count:      c.Frequency,
			Percentage: formatPercentage(c.Percentage),
		})
	}
	return out
}

// formatPercentage rounds to one decimal, halves away from zero.
func formatPercentage(p float64) string {
	return strconv.FormatFloat(math.Floor(p*10+0.5)/10, 'f', 1, 64)
}
