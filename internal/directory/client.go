// Package directory reads customer codes and ship-to addresses from the
// directory service.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
	"github.com/joseph-ayodele/po-intake/internal/httpx"
)

const (
	PathCustomers = "/api/customers"
	PathShipTo    = "/api/customer-ship-to/"
)

var (
	customersSchema = jsonschema.MustCompileString("customers.json", `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["value", "label"],
			"properties": {
				"value": {"type": "string"},
				"label": {"type": "string"}
			}
		}
	}`)
	shipToSchema = jsonschema.MustCompileString("ship_to.json", `{
		"type": "object",
		"additionalProperties": {"type": "string"}
	}`)
)

// Directory is the lookup surface the scope resolver depends on.
type Directory interface {
	ListCustomers(ctx context.Context) ([]entity.Customer, error)
	ShipTo(ctx context.Context, customerCode string) (entity.ShipToMap, error)
}

// Config for the HTTP directory client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

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
	return &Client{cfg: cfg, http: httpx.NewClient(cfg.Timeout), logger: logger}
}

// ListCustomers returns the directory in service order.
func (c *Client) ListCustomers(ctx context.Context) ([]entity.Customer, error) {
	raw, _, err := httpx.GetJSON(ctx, c.http, c.cfg.BaseURL+PathCustomers, c.logger)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if err := validate(customersSchema, raw); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	var out []entity.Customer
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("list customers: decode: %w", err)
	}
	c.logger.Debug("directory.customers.ok", "count", len(out))
	return out, nil
}

// ShipTo returns the ship-to addresses of one customer.
func (c *Client) ShipTo(ctx context.Context, customerCode string) (entity.ShipToMap, error) {
	endpoint := c.cfg.BaseURL + PathShipTo + url.PathEscape(customerCode)
	raw, _, err := httpx.GetJSON(ctx, c.http, endpoint, c.logger)
	if err != nil {
		return nil, fmt.Errorf("ship-to %s: %w", customerCode, err)
	}
	if err := validate(shipToSchema, raw); err != nil {
		return nil, fmt.Errorf("ship-to %s: %w", customerCode, err)
	}
	out := entity.ShipToMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ship-to %s: decode: %w", customerCode, err)
	}
	c.logger.Debug("directory.ship_to.ok", "customer", customerCode, "count", len(out))
	return out, nil
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrMalformedPayload, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrMalformedPayload, err)
	}
	return nil
}
