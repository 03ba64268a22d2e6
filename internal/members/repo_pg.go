package members

import (
	"context"
	"database/sql"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) ListMembers(ctx context.Context, projectID int64) ([]Member, error) {
	if projectID <= 0 {
		return nil, ErrInvalidProject
	}
	const query = `
SELECT id, user_id, role_id, username, role_name
FROM members
WHERE project_id = $1
ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		var m Member
		var username sql.NullString
		var roleName sql.NullString
		if err := rows.Scan(&m.ID, &m.User, &m.Role, &username, &roleName); err != nil {
			return nil, err
		}
		m.Username = nullableValue(username)
		m.RoleName = nullableValue(roleName)
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullableValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

var _ Source = (*PGRepo)(nil)
