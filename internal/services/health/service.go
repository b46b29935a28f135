package health

import (
	"context"
	"sort"
	"time"
)

// Check probes one dependency; nil means healthy.
type Check func(ctx context.Context) error

// Service runs named dependency checks for the health endpoint.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a health service with a per-check timeout.
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{checks: make(map[string]Check), timeout: timeout}
}

// Add registers a check under name.
func (s *Service) Add(name string, check Check) {
	if s == nil || check == nil {
		return
	}
	s.checks[name] = check
}

// Status runs every check and reports per-check results plus overall health.
func (s *Service) Status(ctx context.Context) (map[string]string, bool) {
	out := map[string]string{}
	if s == nil {
		return out, true
	}
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ok := true
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name](checkCtx)
		cancel()
		if err != nil {
			out[name] = err.Error()
			ok = false
			continue
		}
		out[name] = "ok"
	}
	return out, ok
}
