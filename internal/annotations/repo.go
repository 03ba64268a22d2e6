package annotations

import (
	"context"
	"errors"
)

// ErrInvalidProject is returned when a project id is not positive.
var ErrInvalidProject = errors.New("invalid project id")

// Source lists the annotations of a project.
type Source interface {
	ListAnnotations(ctx context.Context, projectID int64, filters Filters) (Page, error)
}
