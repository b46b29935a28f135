package recommended

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aboutpage-backend/internal/components"
	"aboutpage-backend/internal/pageconfig"
	"aboutpage-backend/internal/shared/metrics"
	"aboutpage-backend/internal/shared/telemetry"
)

// Engine tracks which recommended items are still outstanding. It holds no
// copy of the visibility record between calls; every call goes to the store.
type Engine struct {
	items []pageconfig.RecommendedItem
	store Store
	probe components.Probe
}

// NewEngine builds an engine for a fixed item list.
func NewEngine(items []pageconfig.RecommendedItem, store Store, probe components.Probe) *Engine {
	return &Engine{
		items: append([]pageconfig.RecommendedItem(nil), items...),
		store: store,
		probe: probe,
	}
}

// Items returns the configured items in order.
func (e *Engine) Items() []pageconfig.RecommendedItem {
	return append([]pageconfig.RecommendedItem(nil), e.items...)
}

// Initialize seeds every configured item as visible the first time it runs.
// An existing record is never touched, whatever the current config says.
// With no configured items nothing is written, so a later config can still
// seed.
func (e *Engine) Initialize(ctx context.Context) error {
	if len(e.items) == 0 {
		return nil
	}
	seed := make(Record, len(e.items))
	for _, it := range e.items {
		seed[it.ID] = Visible
	}

	if seeder, ok := e.store.(Seeder); ok {
		created, err := seeder.SeedIfAbsent(ctx, seed)
		if err != nil {
			return fmt.Errorf("%w: seed: %w", ErrStoreUnavailable, err)
		}
		if created {
			e.logSeeded(len(seed))
		}
		return nil
	}

	_, found, err := e.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: read before seed: %w", ErrStoreUnavailable, err)
	}
	if found {
		return nil
	}
	if err := e.store.Set(ctx, seed); err != nil {
		return fmt.Errorf("%w: seed: %w", ErrStoreUnavailable, err)
	}
	e.logSeeded(len(seed))
	return nil
}

func (e *Engine) logSeeded(n int) {
	metrics.IncSeed()
	telemetry.Info("recommended_actions.seeded", map[string]any{"items": n})
}

// ComputeOutstanding counts configured items that are visible and whose
// component is not active. A failed store read degrades to 0.
func (e *Engine) ComputeOutstanding(ctx context.Context) int {
	n, err := e.outstanding(ctx)
	if err != nil {
		telemetry.Error("recommended_actions.read_failed", map[string]any{"error": err})
		return 0
	}
	return n
}

func (e *Engine) outstanding(ctx context.Context) (int, error) {
	rec, found, err := e.store.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !found || len(rec) == 0 {
		metrics.SetOutstanding(0)
		return 0, nil
	}
	n := 0
	for _, it := range e.items {
		if rec[it.ID] != Visible {
			continue
		}
		if !e.isActive(ctx, it.ID) {
			n++
		}
	}
	metrics.SetOutstanding(n)
	return n, nil
}

// isActive is true only on an explicit active answer. Errors and unknown
// states count as not active so a broken probe never hides an action.
func (e *Engine) isActive(ctx context.Context, id string) bool {
	return e.probeState(ctx, id) == components.StateActive
}

// probeState asks the probe once, recording latency. A failed probe reports
// StateUnknown.
func (e *Engine) probeState(ctx context.Context, id string) components.State {
	if e.probe == nil {
		return components.StateUnknown
	}
	start := time.Now()
	state, err := e.probe.State(ctx, id)
	if err != nil {
		metrics.ObserveProbe(string(components.StateUnknown), time.Since(start))
		telemetry.Error("component_probe.unavailable", map[string]any{"item_id": id, "error": err})
		return components.StateUnknown
	}
	metrics.ObserveProbe(string(state), time.Since(start))
	telemetry.Debug("component_probe.result", map[string]any{"item_id": id, "state": string(state)})
	return state
}

// Dismiss hides id for good and returns the count computed after the write
// landed. Nothing is returned as a count if either the write or the
// follow-up read fails.
func (e *Engine) Dismiss(ctx context.Context, id string) (int, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		metrics.IncDismiss("invalid")
		return 0, fmt.Errorf("%w: item id is required", ErrInvalidArgument)
	}
	if err := e.hide(ctx, id); err != nil {
		metrics.IncDismiss("failed")
		return 0, err
	}
	n, err := e.outstanding(ctx)
	if err != nil {
		metrics.IncDismiss("failed")
		return 0, err
	}
	metrics.IncDismiss("ok")
	telemetry.Info("recommended_actions.dismissed", map[string]any{"item_id": id, "required_actions": n})
	return n, nil
}

func (e *Engine) hide(ctx context.Context, id string) error {
	if w, ok := e.store.(ItemWriter); ok {
		if err := w.SetState(ctx, id, Hidden); err != nil {
			return fmt.Errorf("%w: hide %s: %w", ErrStoreUnavailable, id, err)
		}
		return nil
	}

	rec, _, err := e.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: read before hide: %w", ErrStoreUnavailable, err)
	}
	next := rec.Clone()
	if next == nil {
		next = Record{}
	}
	next[id] = Hidden
	if err := e.store.Set(ctx, next); err != nil {
		return fmt.Errorf("%w: hide %s: %w", ErrStoreUnavailable, id, err)
	}
	return nil
}

// ItemStatus describes one configured item for the render view.
type ItemStatus struct {
	pageconfig.RecommendedItem
	Visibility     VisibilityState  `json:"visibility"`
	ComponentState components.State `json:"componentState"`
	Outstanding    bool             `json:"outstanding"`
}

// Statuses reports every configured item with its stored visibility and live
// component state, probing each item once. Items missing from the record are
// reported hidden. Counting Outstanding gives the same number
// ComputeOutstanding would for the same probe answers.
func (e *Engine) Statuses(ctx context.Context) ([]ItemStatus, error) {
	rec, _, err := e.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	out := make([]ItemStatus, 0, len(e.items))
	n := 0
	for _, it := range e.items {
		vis := rec[it.ID]
		if vis == "" {
			vis = Hidden
		}
		state := e.probeState(ctx, it.ID)
		outstanding := vis == Visible && state != components.StateActive
		if outstanding {
			n++
		}
		out = append(out, ItemStatus{
			RecommendedItem: it,
			Visibility:      vis,
			ComponentState:  state,
			Outstanding:     outstanding,
		})
	}
	metrics.SetOutstanding(n)
	return out, nil
}

// CountOutstanding counts the outstanding entries of statuses.
func CountOutstanding(statuses []ItemStatus) int {
	n := 0
	for _, s := range statuses {
		if s.Outstanding {
			n++
		}
	}
	return n
}
