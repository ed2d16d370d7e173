package extract

import (
	"context"

	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// Request is one standard-path submission.
type Request struct {
	Document     entity.Document
	CustomerCode string
	Identity     *entity.Identity // sent as the "user" form field when set
}

// Extractor is the extraction service as the batch orchestrator sees it.
// Both methods return raw, pre-normalization field mappings.
type Extractor interface {
	// ExtractStandard returns exactly one field mapping for the document.
	ExtractStandard(ctx context.Context, req Request) (map[string]any, error)
	// ExtractLineItems returns zero or more line items for a default-customer document.
	ExtractLineItems(ctx context.Context, doc entity.Document) ([]map[string]any, error)
}
