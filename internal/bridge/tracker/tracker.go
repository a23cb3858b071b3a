// Package tracker holds the single pending completion handler per operation
// kind. Installing overwrites any previous handler for that kind
// (last-writer-wins, documented contract); resolving consumes the slot
// exactly once and resolving an empty slot is a silent no-op, because the
// originating call may have been superseded
package tracker

import (
	"appbridge/internal/bridge/domain"
)

// Tracker owns the three single-slot holders. It relies on the bridge's
// single-goroutine access model and carries no locking of its own
type Tracker struct {
	deliver domain.DeliverHandler
	oauth   domain.OAuthHandler
	pay     domain.PayHandler
}

// New returns an empty Tracker
func New() *Tracker { return &Tracker{} }

// InstallDeliver installs the share completion handler, replacing any
func (t *Tracker) InstallDeliver(h domain.DeliverHandler) { t.deliver = h }

// InstallOAuth installs the authenticate completion handler, replacing any
func (t *Tracker) InstallOAuth(h domain.OAuthHandler) { t.oauth = h }

// InstallPay installs the payment completion handler, replacing any
func (t *Tracker) InstallPay(h domain.PayHandler) { t.pay = h }

// ResolveDeliver invokes and clears the share slot; no-op when empty
func (t *Tracker) ResolveDeliver(response domain.ResponseJSON, err error) {
	h := t.deliver
	if h == nil {
		return
	}
	t.deliver = nil
	h(response, err)
}

// ResolveOAuth invokes and clears the authenticate slot; no-op when empty
func (t *Tracker) ResolveOAuth(info domain.ResponseJSON, err error) {
	h := t.oauth
	if h == nil {
		return
	}
	t.oauth = nil
	h(info, err)
}

// ResolvePay invokes and clears the payment slot; no-op when empty
func (t *Tracker) ResolvePay(err error) {
	h := t.pay
	if h == nil {
		return
	}
	t.pay = nil
	h(err)
}

// Pending reports whether a handler is installed for kind
func (t *Tracker) Pending(kind domain.OperationKind) bool {
	switch kind {
	case domain.OpDeliver:
		return t.deliver != nil
	case domain.OpAuthenticate:
		return t.oauth != nil
	case domain.OpPay:
		return t.pay != nil
	}
	return false
}
