package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger checks connectivity to a backing store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	Source string
	DB     Pinger
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Source   string `json:"source"`
	Database string `json:"database,omitempty"`
}

// NewService constructs a new health service. db may be nil.
func NewService(source string, db Pinger) *Service {
	return &Service{Source: source, DB: db}
}

// Status reports whether the annotation source is reachable. Only the
// database is probed; remote APIs are checked lazily by report requests.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true, Source: s.Source}
	if s.DB == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		st.OK = false
		st.Database = "unreachable"
		return st
	}
	st.Database = "ok"
	return st
}
