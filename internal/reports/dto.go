package reports

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func parseProjectID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: projectId must be a positive integer", ErrInvalidInput)
	}
	return id, nil
}

func parseOptionalID(c *gin.Context, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidInput, key)
	}
	return &id, nil
}

// filtersFromQuery reads dataset, discussion, perspective, member and timeRange.
func filtersFromQuery(c *gin.Context) (Filters, error) {
	var f Filters
	var err error
	if f.Dataset, err = parseOptionalID(c, "dataset"); err != nil {
		return Filters{}, err
	}
	if f.Discussion, err = parseOptionalID(c, "discussion"); err != nil {
		return Filters{}, err
	}
	if f.Perspective, err = parseOptionalID(c, "perspective"); err != nil {
		return Filters{}, err
	}
	f.Member = ParseMemberToken(c.Query("member"))
	if f.TimeRange, err = ParseTimeRange(c.Query("timeRange")); err != nil {
		return Filters{}, err
	}
	return f, nil
}
