package members

import "strconv"

// RoleProjectAdmin is the role name of project administrators.
const RoleProjectAdmin = "project_admin"

// Member is a project participant who can produce annotations.
type Member struct {
	ID       int64  `json:"id"`
	User     int64  `json:"user"`
	Role     int64  `json:"role"`
	Username string `json:"username"`
	RoleName string `json:"rolename"`
}

// IsProjectAdmin reports whether the member administers the project.
func (m Member) IsProjectAdmin() bool {
	return m.RoleName == RoleProjectAdmin
}

// DisplayName returns the username, or the decimal id when the username is empty.
func (m Member) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}
	return strconv.FormatInt(m.ID, 10)
}
