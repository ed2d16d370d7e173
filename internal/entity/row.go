package entity

import "github.com/joseph-ayodele/po-intake/constants"

// Fields holds one value for every predeclared field key.
type Fields map[constants.FieldKey]string

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Values returns the values in display order.
func (f Fields) Values() []string {
	order := constants.FieldOrder()
	out := make([]string, len(order))
	for i, k := range order {
		out[i] = f[k]
	}
	return out
}

// Row is one extraction result: a whole document, or one line item of a
// default-customer document.
type Row struct {
	Key            string `json:"key"`
	DocumentName   string `json:"document_name"`
	LineIndex      int    `json:"line_index"`
	Fields         Fields `json:"fields"`
	Editing        bool   `json:"editing"`
	DocumentHandle string `json:"document_handle"`
}

// Clone returns a deep copy so callers never share Fields with the ledger.
func (r Row) Clone() Row {
	r.Fields = r.Fields.Clone()
	return r
}
