package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/po-intake/constants"
)

func TestQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100 EA", "100"},
		{"12,5 kg", "125"},
		{"1,200.50 LB", "1200.50"},
		{"0", "0"},
		{"kg", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Quantity(tt.in))
		})
	}
}

func TestDeliveryDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso", "2024-03-15", "2024-03-15"},
		{"us slash", "03/15/2024", "2024-03-15"},
		{"rfc3339 keeps written day", "2024-03-15T23:30:00-05:00", "2024-03-15"},
		{"unparseable passes through", "ASAP", "ASAP"},
		{"empty passes through", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeliveryDate(tt.in))
		})
	}
}

func TestDeliveryDate_Idempotent(t *testing.T) {
	for _, in := range []string{"2024-03-15", "03/15/2024", "2024-03-15T10:30:00Z"} {
		once := DeliveryDate(in)
		assert.Equal(t, once, DeliveryDate(once), in)
	}
}

func TestStandard_EmptyPayload(t *testing.T) {
	fields := Standard(map[string]any{})

	for _, k := range constants.FieldOrder() {
		assert.Equal(t, constants.NotAvailable, fields[k], k)
	}
	assert.Len(t, fields, len(constants.FieldOrder()))

	assert.Len(t, Standard(nil), len(constants.FieldOrder()))
}

func TestStandard_Rules(t *testing.T) {
	raw := map[string]any{
		"sold_to_num":            "BA-100",
		"Deliver to":             "SH-2",
		"Purchase Order Number":  "PO-77",
		"Required Delivery Date": "03/15/2024",
		"Material Number":        "MAT-9",
		"Quantity":               "1,000 KG",
		"confidence":             0.9,
	}

	fields := Standard(raw)

	assert.Equal(t, "BA-100", fields[constants.FieldSoldTo])
	assert.Equal(t, "SH-2", fields[constants.FieldDeliverTo])
	assert.Equal(t, "PO-77", fields[constants.FieldPONumber])
	assert.Equal(t, "2024-03-15", fields[constants.FieldDeliveryDate])
	assert.Equal(t, "MAT-9", fields[constants.FieldMaterial])
	assert.Equal(t, "1000", fields[constants.FieldQuantity])
	assert.Equal(t, constants.NotAvailable, fields[constants.FieldUnit])
	assert.NotContains(t, fields, constants.FieldKey("confidence"))
	assert.Equal(t, []string{"confidence"}, StandardVocabulary.Unknown(raw))
}

func TestStandard_QuantityAndUnitFallbacksDiffer(t *testing.T) {
	fields := Standard(map[string]any{"Quantity": "each", "Unit": ""})

	assert.Equal(t, "", fields[constants.FieldQuantity])
	assert.Equal(t, constants.NotAvailable, fields[constants.FieldUnit])
}

func TestStandard_FalsyValuesKept(t *testing.T) {
	fields := Standard(map[string]any{
		"Quantity":        json.Number("0"),
		"Material Number": "",
		"Unit":            "EA",
	})

	assert.Equal(t, "0", fields[constants.FieldQuantity])
	assert.Equal(t, "", fields[constants.FieldMaterial])
	assert.Equal(t, "EA", fields[constants.FieldUnit])
}

func TestStandard_NullIsAbsent(t *testing.T) {
	fields := Standard(map[string]any{"Quantity": nil, "Required Delivery Date": nil})

	assert.Equal(t, constants.NotAvailable, fields[constants.FieldQuantity])
	assert.Equal(t, constants.NotAvailable, fields[constants.FieldDeliveryDate])
}

func TestLineItem(t *testing.T) {
	fields := LineItem(map[string]any{
		"Customer Name":          "Acme Foods",
		"Delivery Address":       "1 Dock Rd",
		"Purchase Order Number":  "4500012",
		"Required Delivery Date": "2024-06-01",
		"Material Number":        "M-1",
		"Order Quantity in kg":   json.Number("1200"),
	})

	assert.Equal(t, "Acme Foods", fields[constants.FieldSoldTo])
	assert.Equal(t, "1 Dock Rd", fields[constants.FieldDeliverTo])
	assert.Equal(t, "4500012", fields[constants.FieldPONumber])
	assert.Equal(t, "2024-06-01", fields[constants.FieldDeliveryDate])
	assert.Equal(t, "M-1", fields[constants.FieldMaterial])
	assert.Equal(t, "1200", fields[constants.FieldQuantity])
	assert.Equal(t, "kg", fields[constants.FieldUnit])
}

func TestLineItem_Fallbacks(t *testing.T) {
	fields := LineItem(map[string]any{"Customer Name": "", "Unit": "LB"})

	assert.Equal(t, constants.DefaultCustomerCode, fields[constants.FieldSoldTo])
	assert.Equal(t, "kg", fields[constants.FieldUnit])
	assert.Equal(t, constants.NotAvailable, fields[constants.FieldQuantity])
	assert.Equal(t, constants.NotAvailable, fields[constants.FieldDeliverTo])
	assert.Equal(t, []string{"Unit"}, LineItemVocabulary.Unknown(map[string]any{"Unit": "LB", "Customer Name": "x"}))
}

func TestStringify(t *testing.T) {
	s, ok := Stringify(float64(1200.5))
	assert.True(t, ok)
	assert.Equal(t, "1200.5", s)

	s, ok = Stringify(true)
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	_, ok = Stringify(nil)
	assert.False(t, ok)
}
