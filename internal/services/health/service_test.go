package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatusAllHealthy(t *testing.T) {
	s := NewService(time.Second)
	s.Add("visibility_store", func(ctx context.Context) error { return nil })

	checks, ok := s.Status(context.Background())
	if !ok {
		t.Fatalf("expected healthy")
	}
	if checks["visibility_store"] != "ok" {
		t.Fatalf("unexpected checks %v", checks)
	}
}

func TestStatusReportsFailure(t *testing.T) {
	s := NewService(time.Second)
	s.Add("visibility_store", func(ctx context.Context) error { return nil })
	s.Add("database", func(ctx context.Context) error { return errors.New("connection refused") })

	checks, ok := s.Status(context.Background())
	if ok {
		t.Fatalf("expected unhealthy")
	}
	if checks["database"] != "connection refused" || checks["visibility_store"] != "ok" {
		t.Fatalf("unexpected checks %v", checks)
	}
}

func TestStatusAppliesTimeout(t *testing.T) {
	s := NewService(10 * time.Millisecond)
	s.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if _, ok := s.Status(context.Background()); ok {
		t.Fatalf("expected timeout to fail the check")
	}
}

func TestNilServiceIsHealthy(t *testing.T) {
	var s *Service
	if _, ok := s.Status(context.Background()); !ok {
		t.Fatalf("expected nil service healthy")
	}
}
