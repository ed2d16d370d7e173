package entity

import "strings"

// Identity is the already-authenticated caller. It is always passed in explicitly.
type Identity struct {
	Username     string `json:"username,omitempty"`
	IsAdmin      bool   `json:"isAdmin"`
	CustomerCode string `json:"customerCode,omitempty"`
}

// HasAssignedCustomer reports whether a customer code is attached to the identity.
func (i Identity) HasAssignedCustomer() bool {
	return strings.TrimSpace(i.CustomerCode) != ""
}
