package components

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGProbe reads component state from the components table, kept current by
// whatever host process activates plugins.
type PGProbe struct {
	DB *sql.DB
}

func (p *PGProbe) State(ctx context.Context, id string) (State, error) {
	if p == nil || p.DB == nil {
		return StateUnknown, ErrUnavailable
	}
	const query = `
SELECT status
FROM components
WHERE slug = $1
LIMIT 1`
	var status string
	err := p.DB.QueryRowContext(ctx, query, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StateInactive, nil
		}
		return StateUnknown, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parseState(status), nil
}

func parseState(raw string) State {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "activated":
		return StateActive
	case "inactive", "installed", "not_installed":
		return StateInactive
	default:
		return StateUnknown
	}
}
