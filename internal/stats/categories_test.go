package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotation-stats/internal/annotations"
)

func TestCategoryStatistics(t *testing.T) {
	t.Parallel()

	records := []annotations.Annotation{
		rec(1, 1, 10, "B", 0, 1),
		rec(2, 1, 10, "A", 0, 1),
		rec(3, 1, 10, "B", 2, 3),
	}

	got := CategoryStatistics(records)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Category)
	assert.Equal(t, 2, got[0].Frequency)
	assert.InDelta(t, 66.6666, got[0].Percentage, 1e-3)
	assert.Equal(t, "A", got[1].Category)
	assert.Equal(t, 1, got[1].Frequency)
	assert.InDelta(t, 33.3333, got[1].Percentage, 1e-3)
}

func TestCategoryPercentagesSumToHundred(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"A"},
		{"A", "B", "C"},
		{"A", "A", "B", "C", "C", "C", "D"},
	}
	for _, categories := range cases {
		var records []annotations.Annotation
		for i, c := range categories {
			records = append(records, rec(int64(i), 1, 10, c, i, i+1))
		}
		sum := 0.0
		for _, s := range CategoryStatistics(records) {
			sum += s.Percentage
		}
		assert.InDelta(t, 100.0, sum, 1e-9, "categories=%v", categories)
	}
}

func TestCategoryStatisticsEmpty(t *testing.T) {
	t.Parallel()

	got := CategoryStatistics(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0.0, Percentage(3, 0))
}

func TestDistinctCategories(t *testing.T) {
	t.Parallel()

	records := []annotations.Annotation{
		rec(1, 1, 10, "B", 0, 1),
		rec(2, 2, 10, "A", 0, 1),
		rec(3, 1, 10, "B", 2, 3),
	}
	assert.Equal(t, []string{"B", "A"}, DistinctCategories(records))
	assert.Empty(t, DistinctCategories(nil))
}
