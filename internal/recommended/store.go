package recommended

import (
	"context"
	"errors"
)

// VisibilityState is the per-item dismissal flag.
type VisibilityState string

const (
	Visible VisibilityState = "visible"
	Hidden  VisibilityState = "hidden"
)

func (s VisibilityState) valid() bool {
	return s == Visible || s == Hidden
}

// Record maps item id to its visibility.
type Record map[string]VisibilityState

// Clone returns an independent copy; nil stays nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("visibility store unavailable")
)

// Store persists the visibility record. Get reports false when nothing has
// been stored yet. Set replaces the whole record and must be durable when it
// returns.
type Store interface {
	Get(ctx context.Context) (Record, bool, error)
	Set(ctx context.Context, rec Record) error
}

// ItemWriter is implemented by stores that can update one entry atomically.
// Writing an entry creates the record when absent.
type ItemWriter interface {
	SetState(ctx context.Context, id string, state VisibilityState) error
}

// Seeder is implemented by stores that can create the record only when it
// does not exist yet, without a separate read.
type Seeder interface {
	SeedIfAbsent(ctx context.Context, rec Record) (bool, error)
}
