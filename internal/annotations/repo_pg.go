package annotations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PGRepo implements Source using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ListAnnotations returns the project's annotations ordered by id.
func (r *PGRepo) ListAnnotations(ctx context.Context, projectID int64, filters Filters) (Page, error) {
	if projectID <= 0 {
		return Page{}, ErrInvalidProject
	}
	query, args := buildListQuery(projectID, filters)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	out := []Annotation{}
	for rows.Next() {
		var a Annotation
		var text sql.NullString
		var perspective sql.NullInt64
		var updatedAt sql.NullTime
		if err := rows.Scan(
			&a.ID,
			&a.Document,
			&a.Member,
			&a.Category,
			&a.Start,
			&a.End,
			&text,
			&perspective,
			&a.CreatedAt,
			&updatedAt,
		); err != nil {
			return Page{}, err
		}
		if text.Valid {
			a.Text = text.String
		}
		if perspective.Valid {
			a.Perspective = perspective.Int64
		}
		if updatedAt.Valid {
			a.UpdatedAt = updatedAt.Time
		} else {
			a.UpdatedAt = a.CreatedAt
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	return Page{Results: out, Count: len(out)}, nil
}

func buildListQuery(projectID int64, filters Filters) (string, []any) {
	var b strings.Builder
	b.WriteString(`
SELECT id, document_id, member_id, category, start_offset, end_offset, text, perspective_id, created_at, updated_at
FROM annotations
WHERE project_id = $1`)
	args := []any{projectID}
	add := func(column string, v *int64) {
		if v == nil {
			return
		}
		args = append(args, *v)
		fmt.Fprintf(&b, " AND %s = $%d", column, len(args))
	}
	add("document_id", filters.Dataset)
	add("discussion_id", filters.Discussion)
	add("perspective_id", filters.Perspective)
	add("member_id", filters.Member)
	b.WriteString("\nORDER BY id ASC")
	return b.String(), args
}

var _ Source = (*PGRepo)(nil)
