// Package normalize turns raw extraction payloads into canonical row fields.
// Every fallback is listed in a rule table; nothing relies on zero values.
package normalize

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// rule maps one raw key onto one canonical field.
type rule struct {
	source         string // raw key; empty for fixed-value rules
	target         constants.FieldKey
	transform      func(string) string
	missing        string // stored when the raw key is absent or null
	blankIsMissing bool
	fixed          string // used when source is empty
}

// Vocabulary is the set of raw keys one extraction entry point speaks.
type Vocabulary struct {
	name  string
	rules []rule
}

// StandardVocabulary covers /api/process-purchase-order responses.
var StandardVocabulary = Vocabulary{
	name: "standard",
	rules: []rule{
		{source: "sold_to_num", target: constants.FieldSoldTo, missing: constants.NotAvailable},
		{source: "Deliver to", target: constants.FieldDeliverTo, missing: constants.NotAvailable},
		{source: "Purchase Order Number", target: constants.FieldPONumber, missing: constants.NotAvailable},
		{source: "Required Delivery Date", target: constants.FieldDeliveryDate, transform: DeliveryDate, missing: constants.NotAvailable},
		{source: "Material Number", target: constants.FieldMaterial, missing: constants.NotAvailable},
		{source: "Quantity", target: constants.FieldQuantity, transform: Quantity, missing: constants.NotAvailable},
		{source: "Unit", target: constants.FieldUnit, missing: constants.NotAvailable, blankIsMissing: true},
	},
}

// LineItemVocabulary covers /api/process-default-purchase-order line items.
var LineItemVocabulary = Vocabulary{
	name: "default-line-item",
	rules: []rule{
		{source: "Customer Name", target: constants.FieldSoldTo, missing: constants.DefaultCustomerCode, blankIsMissing: true},
		{source: "Delivery Address", target: constants.FieldDeliverTo, missing: constants.NotAvailable},
		{source: "Purchase Order Number", target: constants.FieldPONumber, missing: constants.NotAvailable},
		{source: "Required Delivery Date", target: constants.FieldDeliveryDate, transform: DeliveryDate, missing: constants.NotAvailable},
		{source: "Material Number", target: constants.FieldMaterial, missing: constants.NotAvailable},
		{source: "Order Quantity in kg", target: constants.FieldQuantity, transform: Quantity, missing: constants.NotAvailable},
		{target: constants.FieldUnit, fixed: constants.DefaultPathUnit},
	},
}

// Name identifies the vocabulary in logs.
func (v Vocabulary) Name() string { return v.name }

// Normalize is total: any mapping, including nil, yields a value for every field key.
func (v Vocabulary) Normalize(raw map[string]any) entity.Fields {
	out := make(entity.Fields, len(v.rules))
	for _, r := range v.rules {
		if r.source == "" {
			out[r.target] = r.fixed
			continue
		}
		s, present := Stringify(raw[r.source])
		if present && r.blankIsMissing && strings.TrimSpace(s) == "" {
			present = false
		}
		switch {
		case !present:
			out[r.target] = r.missing
		case r.transform != nil:
			out[r.target] = r.transform(s)
		default:
			out[r.target] = s
		}
	}
	for _, k := range constants.FieldOrder() {
		if _, ok := out[k]; !ok {
			out[k] = constants.NotAvailable
		}
	}
	return out
}

// Unknown lists raw keys the vocabulary drops, sorted.
func (v Vocabulary) Unknown(raw map[string]any) []string {
	var dropped []string
	for k := range raw {
		known := slices.ContainsFunc(v.rules, func(r rule) bool { return r.source != "" && r.source == k })
		if !known {
			dropped = append(dropped, k)
		}
	}
	slices.Sort(dropped)
	return dropped
}

// Standard normalizes a standard extraction payload.
func Standard(raw map[string]any) entity.Fields {
	return StandardVocabulary.Normalize(raw)
}

// LineItem normalizes one default-path line item.
func LineItem(raw map[string]any) entity.Fields {
	return LineItemVocabulary.Normalize(raw)
}

// Stringify renders a decoded JSON value as text. The bool is false for
// absent keys and JSON null.
func Stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	}
}
