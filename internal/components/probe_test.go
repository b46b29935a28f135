package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStaticProbe(t *testing.T) {
	p := NewStaticProbe("A", " ", "C ")
	ctx := context.Background()

	cases := map[string]State{"A": StateActive, "B": StateInactive, "C": StateActive}
	for id, want := range cases {
		got, err := p.State(ctx, id)
		if err != nil {
			t.Fatalf("State(%s): %v", id, err)
		}
		if got != want {
			t.Fatalf("State(%s): expected %s, got %s", id, want, got)
		}
	}
}

type slowProbe struct{ delay time.Duration }

func (s slowProbe) State(ctx context.Context, id string) (State, error) {
	select {
	case <-time.After(s.delay):
		return StateActive, nil
	case <-ctx.Done():
		return StateUnknown, ctx.Err()
	}
}

func TestTimeoutProbeReportsUnavailable(t *testing.T) {
	p := WithTimeout(slowProbe{delay: time.Second}, 10*time.Millisecond)
	state, err := p.State(context.Background(), "A")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if state != StateUnknown {
		t.Fatalf("expected unknown state, got %s", state)
	}
}

func TestWithTimeoutZeroReturnsSameProbe(t *testing.T) {
	base := NewStaticProbe()
	if got := WithTimeout(base, 0); got != Probe(base) {
		t.Fatalf("expected probe returned unchanged")
	}
}

func TestPGProbeStates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	probe := &PGProbe{DB: db}
	ctx := context.Background()

	mock.ExpectQuery("SELECT status FROM components").
		WithArgs("otter-blocks").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectQuery("SELECT status FROM components").
		WithArgs("optimole-wp").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectQuery("SELECT status FROM components").
		WithArgs("weird").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("network-only"))
	mock.ExpectQuery("SELECT status FROM components").
		WithArgs("down").
		WillReturnError(errors.New("connection refused"))

	if got, err := probe.State(ctx, "otter-blocks"); err != nil || got != StateActive {
		t.Fatalf("expected active, got %s (%v)", got, err)
	}
	if got, err := probe.State(ctx, "optimole-wp"); err != nil || got != StateInactive {
		t.Fatalf("expected inactive for missing row, got %s (%v)", got, err)
	}
	if got, err := probe.State(ctx, "weird"); err != nil || got != StateUnknown {
		t.Fatalf("expected unknown, got %s (%v)", got, err)
	}
	if _, err := probe.State(ctx, "down"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
