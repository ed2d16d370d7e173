package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
	"github.com/joseph-ayodele/po-intake/internal/httpx"
)

const (
	PathStandard = "/api/process-purchase-order"
	PathDefault  = "/api/process-default-purchase-order"
)

// Config for the HTTP extraction client.
type Config struct {
	BaseURL string
	Timeout time.Duration // 0 leaves requests unbounded
}

// Client talks to the extraction service over HTTP.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = common.TrimmedBaseURL(cfg.BaseURL)
	return &Client{
		cfg:    cfg,
		http:   httpx.NewClient(cfg.Timeout),
		logger: logger,
	}
}

// ExtractStandard posts the document with its customer code.
func (c *Client) ExtractStandard(ctx context.Context, req Request) (map[string]any, error) {
	fields := []httpx.Field{{Name: "customer", Value: req.CustomerCode}}
	if req.Identity != nil {
		user, err := json.Marshal(struct {
			IsAdmin      bool   `json:"isAdmin"`
			CustomerCode string `json:"customerCode"`
		}{req.Identity.IsAdmin, req.Identity.CustomerCode})
		if err != nil {
			return nil, fmt.Errorf("encode user: %w", err)
		}
		fields = append(fields, httpx.Field{Name: "user", Value: string(user)})
	}

	raw, err := c.post(ctx, PathStandard, req.Document, fields)
	if err != nil {
		return nil, err
	}
	v, err := decodeValidated(standardSchema, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedPayload, err)
	}
	m := v.(map[string]any)
	if msg, ok := serviceError(m); ok {
		return nil, errors.New(msg)
	}
	return m, nil
}

// ExtractLineItems posts the document to the default-customer endpoint.
// A single object response counts as one line item.
func (c *Client) ExtractLineItems(ctx context.Context, doc entity.Document) ([]map[string]any, error) {
	raw, err := c.post(ctx, PathDefault, doc, nil)
	if err != nil {
		return nil, err
	}
	v, err := decodeValidated(lineItemsSchema, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedPayload, err)
	}

	switch t := v.(type) {
	case map[string]any:
		if msg, ok := serviceError(t); ok {
			return nil, errors.New(msg)
		}
		return []map[string]any{t}, nil
	case []any:
		items := make([]map[string]any, 0, len(t))
		for _, it := range t {
			items = append(items, it.(map[string]any))
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %T", common.ErrMalformedPayload, v)
	}
}

func (c *Client) post(ctx context.Context, path string, doc entity.Document, fields []httpx.Field) ([]byte, error) {
	start := time.Now()
	file := httpx.FilePart{
		Field:       "file",
		FileName:    doc.Name,
		ContentType: doc.ContentType,
		Data:        doc.Data,
	}
	raw, status, err := httpx.PostMultipart(ctx, c.http, c.cfg.BaseURL+path, fields, []httpx.FilePart{file}, c.logger)
	if err != nil {
		c.logger.Error("extract.http_error",
			"path", path,
			"document", doc.Name,
			"status", status,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	c.logger.Debug("extract.ok", "path", path, "document", doc.Name, "bytes", len(raw))
	return raw, nil
}

// serviceError reports a 2xx body that still carries {"error": "..."}.
func serviceError(m map[string]any) (string, bool) {
	v, ok := m["error"]
	if !ok || v == nil {
		return "", false
	}
	msg := strings.TrimSpace(fmt.Sprint(v))
	if msg == "" {
		msg = "extraction service reported an error"
	}
	return msg, true
}
