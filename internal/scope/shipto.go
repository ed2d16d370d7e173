package scope

import (
	"context"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// ShipToSource fetches ship-to addresses; directory.Client satisfies it.
type ShipToSource interface {
	ShipTo(ctx context.Context, customerCode string) (entity.ShipToMap, error)
}

// ShipToTracker holds the ship-to map of the active customer. Changing the
// customer clears the map before the lookup starts, and a response for a
// superseded customer is dropped.
type ShipToTracker struct {
	source ShipToSource
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64
	code    string
	current entity.ShipToMap
}

func NewShipToTracker(source ShipToSource, logger *slog.Logger) *ShipToTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShipToTracker{source: source, logger: logger, current: entity.ShipToMap{}}
}

// Refresh switches to customerCode and loads its addresses. Failures leave
// the map empty and come back as a DEPENDENCY error.
func (t *ShipToTracker) Refresh(ctx context.Context, customerCode string) (entity.ShipToMap, error) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.code = customerCode
	t.current = entity.ShipToMap{}
	t.mu.Unlock()

	if customerCode == "" {
		return entity.ShipToMap{}, nil
	}

	m, err := t.source.ShipTo(ctx, customerCode)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		t.logger.Debug("scope.ship_to.stale", "customer", customerCode)
		return entity.ShipToMap{}, nil
	}
	if err != nil {
		t.logger.Warn("scope.ship_to.failed", "customer", customerCode, "error", err)
		return entity.ShipToMap{}, common.NewAppError(common.CodeDependency, "Failed to load ship-to info", err)
	}
	t.current = m.Clone()
	return t.current.Clone(), nil
}

// Clear drops the active customer and its addresses.
func (t *ShipToTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.code = ""
	t.current = entity.ShipToMap{}
}

// Current returns the active customer code and a copy of its addresses.
func (t *ShipToTracker) Current() (string, entity.ShipToMap) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.code, t.current.Clone()
}
