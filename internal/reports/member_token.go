package reports

import (
	"strconv"
	"strings"

	"annotation-stats/internal/members"
)

// TokenKind tells how a member filter was supplied.
type TokenKind int

const (
	TokenNone TokenKind = iota
	TokenID
	TokenUsername
)

// MemberToken is a member filter given either as a numeric id or as a username.
type MemberToken struct {
	Kind     TokenKind
	ID       int64
	Username string
}

// MemberID builds an id token.
func MemberID(id int64) MemberToken {
	return MemberToken{Kind: TokenID, ID: id}
}

// MemberUsername builds a username token.
func MemberUsername(username string) MemberToken {
	return MemberToken{Kind: TokenUsername, Username: username}
}

// ParseMemberToken classifies a raw filter value. Blank input yields TokenNone,
// integers yield TokenID and anything else TokenUsername.
func ParseMemberToken(raw string) MemberToken {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MemberToken{}
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return MemberID(id)
	}
	return MemberUsername(raw)
}

// IsZero reports whether no member filter was given.
func (t MemberToken) IsZero() bool {
	return t.Kind == TokenNone
}

func (t MemberToken) String() string {
	switch t.Kind {
	case TokenID:
		return strconv.FormatInt(t.ID, 10)
	case TokenUsername:
		return t.Username
	default:
		return ""
	}
}

// Resolve maps the token to a member id. The token text is matched against
// usernames first; an id token that matches no username resolves to its own
// value. A username matching no member is unresolved.
func (t MemberToken) Resolve(ms []members.Member) (int64, bool) {
	if t.IsZero() {
		return 0, false
	}
	text := t.String()
	for _, m := range ms {
		if m.Username == text {
			return m.ID, true
		}
	}
	if t.Kind == TokenID {
		return t.ID, true
	}
	return 0, false
}
