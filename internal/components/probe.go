package components

import (
	"context"
	"errors"
	"strings"
	"time"
)

// State is what the host reports about a component.
type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StateUnknown  State = "unknown"
)

// ErrUnavailable marks a probe that could not answer.
var ErrUnavailable = errors.New("component probe unavailable")

// Probe reports whether a named component is active in the host.
type Probe interface {
	State(ctx context.Context, id string) (State, error)
}

// StaticProbe answers from a fixed set of active slugs (ACTIVE_COMPONENTS).
// Anything else is inactive. The set never changes after construction.
type StaticProbe struct {
	active map[string]struct{}
}

func NewStaticProbe(active ...string) *StaticProbe {
	p := &StaticProbe{active: make(map[string]struct{}, len(active))}
	for _, id := range active {
		if id = strings.TrimSpace(id); id != "" {
			p.active[id] = struct{}{}
		}
	}
	return p
}

func (p *StaticProbe) State(ctx context.Context, id string) (State, error) {
	if err := ctx.Err(); err != nil {
		return StateUnknown, err
	}
	if _, ok := p.active[id]; ok {
		return StateActive, nil
	}
	return StateInactive, nil
}

// TimeoutProbe bounds each call to the wrapped probe.
type TimeoutProbe struct {
	Next    Probe
	Timeout time.Duration
}

// WithTimeout wraps p when d is positive and returns p unchanged otherwise.
func WithTimeout(p Probe, d time.Duration) Probe {
	if d <= 0 {
		return p
	}
	return &TimeoutProbe{Next: p, Timeout: d}
}

func (p *TimeoutProbe) State(ctx context.Context, id string) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	state, err := p.Next.State(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return StateUnknown, errors.Join(ErrUnavailable, err)
		}
		return StateUnknown, err
	}
	return state, nil
}
