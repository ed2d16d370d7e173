// Package batch runs one purchase-order upload: every selected document is
// sent to the extraction service in order and the normalized rows land in
// the ledger.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
	"github.com/joseph-ayodele/po-intake/internal/extract"
	"github.com/joseph-ayodele/po-intake/internal/ledger"
	"github.com/joseph-ayodele/po-intake/internal/normalize"
)

// Config carries the orchestrator's behavior flags.
type Config struct {
	// SupportsDefaultCustomerBranch routes the default customer to the line-item endpoint.
	SupportsDefaultCustomerBranch bool
	DefaultCustomerCode           string
	// MinInterval spaces consecutive extraction calls; 0 sends back to back.
	MinInterval time.Duration
}

// Request is one batch run.
type Request struct {
	CustomerCode string
	Identity     *entity.Identity
	Documents    []entity.Document
	// OnProgress, if set, is called as each document changes state.
	OnProgress func(DocumentEvent)
}

// DocumentEvent reports one document state transition.
type DocumentEvent struct {
	Index  int
	Name   string
	Status constants.DocumentStatus
	Rows   int
	Err    error
}

// DocumentFailure is a recorded per-document error.
type DocumentFailure struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Report summarizes a finished run.
type Report struct {
	Rows      []entity.Row      `json:"rows"`
	Failures  []DocumentFailure `json:"failures"`
	LastError string            `json:"last_error,omitempty"`
	Elapsed   time.Duration     `json:"elapsed"`
}

type Orchestrator struct {
	extractor extract.Extractor
	ledger    *ledger.Ledger
	cfg       Config
	limiter   *rate.Limiter
	logger    *slog.Logger

	mu      sync.Mutex
	status  constants.RunStatus
	lastErr string
}

func NewOrchestrator(extractor extract.Extractor, l *ledger.Ledger, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultCustomerCode == "" {
		cfg.DefaultCustomerCode = constants.DefaultCustomerCode
	}
	o := &Orchestrator{
		extractor: extractor,
		ledger:    l,
		cfg:       cfg,
		logger:    logger,
		status:    constants.RunStatusIdle,
	}
	if cfg.MinInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return o
}

// Status returns IDLE or SUBMITTING.
func (o *Orchestrator) Status() constants.RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// LastError returns the most recent failure message. It is cleared only when
// a new run starts.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Ledger exposes the row set the orchestrator appends to.
func (o *Orchestrator) Ledger() *ledger.Ledger { return o.ledger }

// Run processes req.Documents one at a time. A precondition failure returns
// an error and touches nothing; document failures are recorded in the report
// and the run continues.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if len(req.Documents) == 0 {
		return nil, common.NewAppError(common.CodePrecondition, "Please select at least one file", common.ErrNoDocuments)
	}
	if strings.TrimSpace(req.CustomerCode) == "" {
		return nil, common.NewAppError(common.CodePrecondition, "Please select a customer", common.ErrNoCustomer)
	}

	o.mu.Lock()
	if o.status == constants.RunStatusSubmitting {
		o.mu.Unlock()
		return nil, common.NewAppError(common.CodePrecondition, "A batch is already being processed", common.ErrBatchInProgress)
	}
	o.status = constants.RunStatusSubmitting
	o.lastErr = ""
	o.mu.Unlock()
	defer o.setStatus(constants.RunStatusIdle)

	o.ledger.Reset()

	start := time.Now()
	lineItems := o.usesLineItems(req.CustomerCode)
	o.logger.Info("batch.start",
		"customer", req.CustomerCode,
		"documents", len(req.Documents),
		"line_items", lineItems,
	)

	report := &Report{}
	for i, doc := range req.Documents {
		notify(req.OnProgress, DocumentEvent{Index: i, Name: doc.Name, Status: constants.DocumentStatusRequesting})

		rows, err := o.processDocument(ctx, req, doc, lineItems)
		if err == nil {
			err = o.ledger.Append(rows...)
		}
		if err != nil {
			msg := common.UserMessage(err)
			o.recordError(msg)
			report.Failures = append(report.Failures, DocumentFailure{Index: i, Name: doc.Name, Message: msg, Err: err})
			o.logger.Error("batch.document.failed", "index", i, "document", doc.Name, "error", err)
			notify(req.OnProgress, DocumentEvent{Index: i, Name: doc.Name, Status: constants.DocumentStatusFailed, Err: err})
			continue
		}

		report.Rows = append(report.Rows, rows...)
		o.logger.Debug("batch.document.ok", "index", i, "document", doc.Name, "rows", len(rows))
		notify(req.OnProgress, DocumentEvent{Index: i, Name: doc.Name, Status: constants.DocumentStatusSucceeded, Rows: len(rows)})
	}

	report.LastError = o.LastError()
	report.Elapsed = time.Since(start)
	o.logger.Info("batch.done",
		"customer", req.CustomerCode,
		"rows", len(report.Rows),
		"ledger_rows", o.ledger.Len(),
		"failed", len(report.Failures),
		"elapsed_ms", report.Elapsed.Milliseconds(),
	)
	return report, nil
}

func (o *Orchestrator) usesLineItems(customerCode string) bool {
	return o.cfg.SupportsDefaultCustomerBranch && constants.IsDefaultCustomer(customerCode, o.cfg.DefaultCustomerCode)
}

func (o *Orchestrator) processDocument(ctx context.Context, req Request, doc entity.Document, lineItems bool) ([]entity.Row, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, failed(doc, err)
		}
	}
	handle := doc.Handle
	if handle == "" {
		handle = uuid.NewString()
	}

	if lineItems {
		items, err := o.extractor.ExtractLineItems(ctx, doc)
		if err != nil {
			return nil, failed(doc, err)
		}
		if len(items) == 0 {
			return nil, common.NewAppError(common.CodeExtraction, fmt.Sprintf("No data extracted from %s", doc.Name), common.ErrNoLineItems)
		}
		rows := make([]entity.Row, 0, len(items))
		for i, item := range items {
			name := doc.Name
			if i > 0 {
				name = fmt.Sprintf("%s (Line %d)", doc.Name, i+1)
			}
			o.logDropped(normalize.LineItemVocabulary, doc.Name, item)
			rows = append(rows, entity.Row{
				Key:            uuid.NewString(),
				DocumentName:   name,
				LineIndex:      i,
				Fields:         normalize.LineItem(item),
				DocumentHandle: handle,
			})
		}
		return rows, nil
	}

	raw, err := o.extractor.ExtractStandard(ctx, extract.Request{
		Document:     doc,
		CustomerCode: req.CustomerCode,
		Identity:     req.Identity,
	})
	if err != nil {
		return nil, failed(doc, err)
	}
	o.logDropped(normalize.StandardVocabulary, doc.Name, raw)
	return []entity.Row{{
		Key:            uuid.NewString(),
		DocumentName:   doc.Name,
		Fields:         normalize.Standard(raw),
		DocumentHandle: handle,
	}}, nil
}

func (o *Orchestrator) logDropped(v normalize.Vocabulary, name string, raw map[string]any) {
	if dropped := v.Unknown(raw); len(dropped) > 0 {
		o.logger.Debug("batch.normalize.dropped_keys", "document", name, "vocabulary", v.Name(), "keys", dropped)
	}
}

func (o *Orchestrator) recordError(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = msg
}

func (o *Orchestrator) setStatus(s constants.RunStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = s
}

func failed(doc entity.Document, err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code == common.CodeExtraction {
		return err
	}
	return common.NewAppError(common.CodeExtraction, fmt.Sprintf("Failed to process %s", doc.Name), err)
}

func notify(fn func(DocumentEvent), ev DocumentEvent) {
	if fn != nil {
		fn(ev)
	}
}
