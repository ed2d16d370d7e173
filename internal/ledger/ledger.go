// Package ledger holds the editable rows of one batch in memory.
package ledger

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// Ledger is an ordered row set; rows are appended, edited in place, and
// discarded together. Every access goes through one mutex.
type Ledger struct {
	mu     sync.RWMutex
	rows   []entity.Row
	index  map[string]int
	logger *slog.Logger
}

func New(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{index: make(map[string]int), logger: logger}
}

// Append adds rows at the end. Keys must be unique.
func (l *Ledger) Append(rows ...entity.Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range rows {
		if r.Key == "" {
			return common.NewAppError(common.CodeLedger, "row key is required", common.ErrInvalidInput)
		}
		if _, dup := l.index[r.Key]; dup {
			return common.NewAppError(common.CodeLedger, fmt.Sprintf("duplicate row key %q", r.Key), common.ErrInvalidInput)
		}
	}
	for _, r := range rows {
		l.index[r.Key] = len(l.rows)
		l.rows = append(l.rows, r.Clone())
	}
	return nil
}

// Rows returns a deep copy in insertion order.
func (l *Ledger) Rows() []entity.Row {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entity.Row, len(l.rows))
	for i, r := range l.rows {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of one row.
func (l *Ledger) Get(key string) (entity.Row, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[key]
	if !ok {
		return entity.Row{}, notFound(key)
	}
	return l.rows[i].Clone(), nil
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// ToggleEdit flips the editing flag of one row and returns the new value.
func (l *Ledger) ToggleEdit(key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[key]
	if !ok {
		return false, notFound(key)
	}
	l.rows[i].Editing = !l.rows[i].Editing
	l.logger.Debug("ledger.toggle_edit", "row", key, "editing", l.rows[i].Editing)
	return l.rows[i].Editing, nil
}

// SetField overwrites one field of a row in editing mode. The value is
// stored as typed; nothing is re-normalized.
func (l *Ledger) SetField(key string, field constants.FieldKey, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[key]
	if !ok {
		return notFound(key)
	}
	if _, known := l.rows[i].Fields[field]; !known {
		return common.NewAppError(common.CodeLedger, fmt.Sprintf("unknown field %q", field), common.ErrUnknownField)
	}
	if !l.rows[i].Editing {
		return common.NewAppError(common.CodeLedger, "Row is not in edit mode", common.ErrRowNotEditing)
	}
	l.rows[i].Fields[field] = value
	l.logger.Debug("ledger.set_field", "row", key, "field", string(field))
	return nil
}

// Reset discards every row.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.rows) > 0 {
		l.logger.Debug("ledger.reset", "discarded", len(l.rows))
	}
	l.rows = nil
	l.index = make(map[string]int)
}

func notFound(key string) error {
	return common.NewAppError(common.CodeLedger, fmt.Sprintf("row %q not found", key), common.ErrNotFound)
}
