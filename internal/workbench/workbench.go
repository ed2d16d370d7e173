// Package workbench is one operator's upload session: customer scope,
// selected documents, the batch orchestrator and its ledger.
package workbench

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/batch"
	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/directory"
	"github.com/joseph-ayodele/po-intake/internal/entity"
	"github.com/joseph-ayodele/po-intake/internal/export"
	"github.com/joseph-ayodele/po-intake/internal/extract"
	"github.com/joseph-ayodele/po-intake/internal/ingest"
	"github.com/joseph-ayodele/po-intake/internal/ledger"
	"github.com/joseph-ayodele/po-intake/internal/scope"
)

// Deps are the collaborators shared by every workbench.
type Deps struct {
	Directory directory.Directory
	Extractor extract.Extractor
	Exporter  *export.Service
}

type Config struct {
	UnassignedScope common.UnassignedScopePolicy
	Batch           batch.Config
}

// State is a point-in-time view for rendering.
type State struct {
	Identity    entity.Identity     `json:"identity"`
	Scope       scope.Scope         `json:"scope"`
	Customer    string              `json:"customer"`
	ShipTo      entity.ShipToMap    `json:"ship_to"`
	ShipToError string              `json:"ship_to_error,omitempty"`
	Documents   []entity.Document   `json:"documents"`
	Rows        []entity.Row        `json:"rows"`
	Status      constants.RunStatus `json:"status"`
	Error       string              `json:"error,omitempty"`
}

// Snapshot is what submit-all hands downstream.
type Snapshot struct {
	Customer    string       `json:"customer"`
	SubmittedBy string       `json:"submitted_by,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Rows        []entity.Row `json:"rows"`
}

const scopeFailedMessage = "Failed to load customers"

type Workbench struct {
	identity entity.Identity
	deps     Deps
	resolver *scope.Resolver
	shipTo   *scope.ShipToTracker
	orch     *batch.Orchestrator
	logger   *slog.Logger

	// runMu is held from the idle check through the mutation it guards, and
	// for the whole of a batch run.
	runMu     sync.Mutex
	// beforeRun is called with runMu held, right before the orchestrator starts.
	beforeRun func()

	mu          sync.Mutex
	scope       scope.Scope
	scopeErr    bool
	customer    string
	documents   []entity.Document
	errMsg      string
	shipToError string
}

func New(identity entity.Identity, cfg Config, deps Deps, logger *slog.Logger) *Workbench {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("user", identity.Username)
	if deps.Exporter == nil {
		deps.Exporter = export.NewService(logger)
	}
	return &Workbench{
		identity: identity,
		deps:     deps,
		resolver: scope.NewResolver(cfg.UnassignedScope, logger),
		shipTo:   scope.NewShipToTracker(deps.Directory, logger),
		orch:     batch.NewOrchestrator(deps.Extractor, ledger.New(logger), cfg.Batch, logger),
		logger:   logger,
	}
}

func (w *Workbench) Identity() entity.Identity { return w.identity }

// LoadScope reads the directory and applies the identity rules. A directory
// failure leaves an empty listing and is reported, not fatal. A pre-selected
// customer is selected right away.
func (w *Workbench) LoadScope(ctx context.Context) (scope.Scope, error) {
	customers, err := w.deps.Directory.ListCustomers(ctx)
	var loadErr error
	if err != nil {
		w.logger.Warn("workbench.customers.failed", "error", err)
		loadErr = common.NewAppError(common.CodeDependency, scopeFailedMessage, err)
		customers = nil
	}
	sc := w.resolver.Resolve(w.identity, customers)

	w.mu.Lock()
	w.scope = sc
	w.scopeErr = loadErr != nil
	if loadErr != nil {
		w.errMsg = common.UserMessage(loadErr)
	} else if w.errMsg == scopeFailedMessage {
		w.errMsg = ""
	}
	current := w.customer
	w.mu.Unlock()

	if sc.Selected != "" && sc.Selected != current {
		if err := w.SelectCustomer(ctx, sc.Selected); err != nil {
			return sc, err
		}
	}
	return sc, loadErr
}

// RetryScope reloads the scope when the last load failed. It is a no-op
// otherwise and while a batch runs.
func (w *Workbench) RetryScope(ctx context.Context) error {
	w.mu.Lock()
	stale := w.scopeErr
	w.mu.Unlock()
	if !stale || w.orch.Status() == constants.RunStatusSubmitting {
		return nil
	}
	w.logger.Info("workbench.scope.retry")
	_, err := w.LoadScope(ctx)
	return err
}

// ScopeFailed reports whether the last scope load hit a directory error.
func (w *Workbench) ScopeFailed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scopeErr
}

// SelectCustomer switches the active customer, discards the ledger and
// refreshes ship-to addresses. "" deselects.
func (w *Workbench) SelectCustomer(ctx context.Context, code string) error {
	if err := w.lockIdle(); err != nil {
		return err
	}

	w.mu.Lock()
	if code != "" && !w.scope.Allows(code) {
		w.mu.Unlock()
		w.runMu.Unlock()
		return common.NewAppError(common.CodePrecondition, "Customer is not available for this user", common.ErrCustomerForbidden)
	}
	w.customer = code
	w.shipToError = ""
	w.mu.Unlock()

	w.orch.Ledger().Reset()
	w.runMu.Unlock()
	w.logger.Info("workbench.customer.selected", "customer", code)

	if code == "" {
		w.shipTo.Clear()
		return nil
	}
	if _, err := w.shipTo.Refresh(ctx, code); err != nil {
		w.mu.Lock()
		if w.customer == code {
			w.shipToError = common.UserMessage(err)
		}
		w.mu.Unlock()
	}
	return nil
}

// SelectDocuments replaces the selection with its PDF subset and discards
// the ledger. The returned message is also kept as the current error.
func (w *Workbench) SelectDocuments(docs []entity.Document) (int, string, error) {
	if err := w.lockIdle(); err != nil {
		return 0, "", err
	}
	defer w.runMu.Unlock()
	kept, msg := ingest.FilterPDF(docs)

	w.mu.Lock()
	w.documents = kept
	w.errMsg = msg
	w.mu.Unlock()

	w.orch.Ledger().Reset()
	w.logger.Info("workbench.documents.selected", "selected", len(docs), "kept", len(kept))
	return len(kept), msg, nil
}

// Submit runs the batch over the current selection. A run always completes:
// cancelling ctx does not stop it, though ctx values are kept.
func (w *Workbench) Submit(ctx context.Context, onProgress func(batch.DocumentEvent)) (*batch.Report, error) {
	if err := w.lockIdle(); err != nil {
		return nil, err
	}
	defer w.runMu.Unlock()

	w.mu.Lock()
	req := batch.Request{
		CustomerCode: w.customer,
		Identity:     &w.identity,
		Documents:    slices.Clone(w.documents),
		OnProgress:   onProgress,
	}
	w.mu.Unlock()

	if w.beforeRun != nil {
		w.beforeRun()
	}
	rep, err := w.orch.Run(context.WithoutCancel(ctx), req)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if common.CodeOf(err) == common.CodePrecondition {
			w.errMsg = common.UserMessage(err)
		}
		return nil, err
	}
	w.errMsg = rep.LastError
	return rep, nil
}

// ToggleEdit flips one row's editing flag.
func (w *Workbench) ToggleEdit(rowKey string) (bool, error) {
	return w.orch.Ledger().ToggleEdit(rowKey)
}

// SetField accepts a field key or its column label.
func (w *Workbench) SetField(rowKey, field, value string) error {
	key, ok := constants.ParseFieldKey(field)
	if !ok {
		return common.NewAppError(common.CodeLedger, "Unknown field "+field, common.ErrUnknownField)
	}
	return w.orch.Ledger().SetField(rowKey, key, value)
}

// SubmitAll captures the ledger as it stands, edits included.
func (w *Workbench) SubmitAll(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := w.lockIdle(); err != nil {
		return nil, err
	}
	rows := w.orch.Ledger().Rows()
	w.runMu.Unlock()
	if len(rows) == 0 {
		return nil, common.NewAppError(common.CodePrecondition, "There are no results to submit", common.ErrInvalidInput)
	}

	w.mu.Lock()
	snap := &Snapshot{
		Customer:    w.customer,
		SubmittedBy: w.identity.Username,
		SubmittedAt: time.Now().UTC(),
		Rows:        rows,
	}
	w.mu.Unlock()

	editing := 0
	for _, r := range rows {
		if r.Editing {
			editing++
		}
	}
	w.logger.Info("workbench.submit_all", "customer", snap.Customer, "rows", len(rows), "still_editing", editing)
	return snap, nil
}

// Export renders the current ledger as XLSX.
func (w *Workbench) Export(ctx context.Context) ([]byte, error) {
	w.mu.Lock()
	customer := w.customer
	w.mu.Unlock()
	return w.deps.Exporter.RowsXLSX(ctx, customer, w.orch.Ledger().Rows())
}

// Reset clears documents, rows and the error message. Customer and scope stay.
func (w *Workbench) Reset() error {
	if err := w.lockIdle(); err != nil {
		return err
	}
	defer w.runMu.Unlock()
	w.mu.Lock()
	w.documents = nil
	w.errMsg = ""
	w.mu.Unlock()
	w.orch.Ledger().Reset()
	return nil
}

// Document finds a selected document by handle, for preview.
func (w *Workbench) Document(handle string) (entity.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.documents, func(d entity.Document) bool { return d.Handle == handle })
	if i < 0 {
		return entity.Document{}, common.NewAppError(common.CodePrecondition, "Document not found", common.ErrNotFound)
	}
	return w.documents[i], nil
}

func (w *Workbench) State() State {
	_, shipTo := w.shipTo.Current()

	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Identity:    w.identity,
		Scope:       w.scope,
		Customer:    w.customer,
		ShipTo:      shipTo,
		ShipToError: w.shipToError,
		Documents:   slices.Clone(w.documents),
		Rows:        w.orch.Ledger().Rows(),
		Status:      w.orch.Status(),
		Error:       w.errMsg,
	}
}

// lockIdle takes runMu, failing instead of waiting when a run holds it.
// The caller unlocks.
func (w *Workbench) lockIdle() error {
	if !w.runMu.TryLock() {
		return common.NewAppError(common.CodePrecondition, "A batch is already being processed", common.ErrBatchInProgress)
	}
	return nil
}
