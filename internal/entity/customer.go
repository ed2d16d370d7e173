package entity

// Customer is one directory entry; Value is the customer code.
type Customer struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ShipToMap maps ship-to code to address for a single customer.
type ShipToMap map[string]string

// Clone returns an independent copy; nil stays an empty map.
func (m ShipToMap) Clone() ShipToMap {
	out := make(ShipToMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
