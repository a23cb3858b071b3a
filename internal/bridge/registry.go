package bridge

import (
	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/validate"
)

// Registry is the in-memory account table. Identity is the vendor tag:
// registering a second account for a vendor replaces the first (remove then
// insert, never mutated in place)
type Registry struct {
	accounts map[domain.Vendor]domain.Account
}

// NewRegistry returns an empty Registry
func NewRegistry() *Registry {
	return &Registry{accounts: map[domain.Vendor]domain.Account{}}
}

// Register validates and stores an account, replacing any existing account
// for the same vendor
func (r *Registry) Register(a domain.Account) error {
	if err := validate.Struct(a); err != nil {
		return err
	}
	delete(r.accounts, a.Vendor)
	r.accounts[a.Vendor] = a
	return nil
}

// Lookup returns the account configured for a vendor
func (r *Registry) Lookup(v domain.Vendor) (domain.Account, error) {
	a, ok := r.accounts[v]
	if !ok {
		return domain.Account{}, perr.NoAccountf("no account registered for %s", v)
	}
	return a, nil
}

// Len returns the number of configured accounts
func (r *Registry) Len() int { return len(r.accounts) }
