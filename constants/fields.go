package constants

import "strings"

// FieldKey names one column of an extracted purchase order row.
type FieldKey string

// Stable keys (these exact strings come back from the extraction service).
const (
	FieldSoldTo       FieldKey = "sold_to_num"
	FieldDeliverTo    FieldKey = "Deliver to"
	FieldPONumber     FieldKey = "Purchase Order Number"
	FieldDeliveryDate FieldKey = "Required Delivery Date"
	FieldMaterial     FieldKey = "Material Number"
	FieldQuantity     FieldKey = "Quantity"
	FieldUnit         FieldKey = "Unit"
)

const (
	// NotAvailable is stored for any field the extraction did not return.
	NotAvailable = "N/A"
	// DefaultCustomerCode routes a batch through the multi-line-item extraction path.
	DefaultCustomerCode = "DEFAULT"
	// DefaultPathUnit is implied by the "Order Quantity in kg" column.
	DefaultPathUnit = "kg"
)

var fieldOrder = []FieldKey{
	FieldSoldTo,
	FieldDeliverTo,
	FieldPONumber,
	FieldDeliveryDate,
	FieldMaterial,
	FieldQuantity,
	FieldUnit,
}

var fieldLabels = map[FieldKey]string{
	FieldSoldTo:       "Customer",
	FieldDeliverTo:    "Ship To",
	FieldPONumber:     "PO Number",
	FieldDeliveryDate: "Delivery Date",
	FieldMaterial:     "Material #",
	FieldQuantity:     "Qty",
	FieldUnit:         "UoM",
}

// FieldOrder returns the predeclared keys in display order.
func FieldOrder() []FieldKey {
	out := make([]FieldKey, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// Label returns the short column header for a key.
func (k FieldKey) Label() string {
	if l, ok := fieldLabels[k]; ok {
		return l
	}
	return string(k)
}

// ParseFieldKey accepts either the raw key or its display label (case-insensitive).
func ParseFieldKey(input string) (FieldKey, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, k := range fieldOrder {
		if normalized == strings.ToLower(string(k)) || normalized == strings.ToLower(fieldLabels[k]) {
			return k, true
		}
	}
	return "", false
}

// IsDefaultCustomer reports whether code selects the default-customer path.
func IsDefaultCustomer(code, sentinel string) bool {
	if sentinel == "" {
		sentinel = DefaultCustomerCode
	}
	return code != "" && strings.EqualFold(strings.TrimSpace(code), sentinel)
}
