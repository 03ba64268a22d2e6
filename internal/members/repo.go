package members

import (
	"context"
	"errors"
)

// ErrInvalidProject is returned when a project id is not positive.
var ErrInvalidProject = errors.New("invalid project id")

// Source lists the members of a project.
type Source interface {
	ListMembers(ctx context.Context, projectID int64) ([]Member, error)
}
