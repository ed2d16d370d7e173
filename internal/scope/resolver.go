// Package scope decides which customers an identity may act under and keeps
// the ship-to addresses of the active customer.
package scope

import (
	"log/slog"
	"slices"

	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// UnselectedLabel is shown for the synthetic empty option admins start on.
const UnselectedLabel = "Select a customer"

// Scope is the selectable customer list plus the pre-selected code ("" for none).
type Scope struct {
	Options  []entity.Customer `json:"options"`
	Selected string            `json:"selected"`
}

// Allows reports whether code is a real (non-empty) option.
func (s Scope) Allows(code string) bool {
	if code == "" {
		return false
	}
	return slices.ContainsFunc(s.Options, func(c entity.Customer) bool { return c.Value == code })
}

type Resolver struct {
	policy common.UnassignedScopePolicy
	logger *slog.Logger
}

func NewResolver(policy common.UnassignedScopePolicy, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = common.ScopeFullDirectory
	}
	return &Resolver{policy: policy, logger: logger}
}

// Resolve applies the identity rules to a directory listing:
//   - admin: unselected sentinel + full directory, nothing pre-selected
//   - assigned code: exactly that code, pre-selected
//   - neither: decided by the unassigned policy
func (r *Resolver) Resolve(identity entity.Identity, directory []entity.Customer) Scope {
	switch {
	case identity.IsAdmin:
		opts := make([]entity.Customer, 0, len(directory)+1)
		opts = append(opts, entity.Customer{Value: "", Label: UnselectedLabel})
		opts = append(opts, directory...)
		return Scope{Options: opts}

	case identity.HasAssignedCustomer():
		code := identity.CustomerCode
		entry := entity.Customer{Value: code, Label: code}
		if i := slices.IndexFunc(directory, func(c entity.Customer) bool { return c.Value == code }); i >= 0 {
			entry = directory[i]
		} else {
			r.logger.Warn("scope.assigned_code_not_in_directory", "customer", code, "user", identity.Username)
		}
		return Scope{Options: []entity.Customer{entry}, Selected: code}

	default:
		r.logger.Info("scope.unassigned_identity", "user", identity.Username, "policy", string(r.policy))
		if r.policy == common.ScopeEmpty {
			return Scope{Options: []entity.Customer{}}
		}
		return Scope{Options: slices.Clone(directory)}
	}
}
