// Package bridge is the cross-app protocol bridge: it encodes outbound
// share/authenticate/pay requests into per-vendor wire formats, dispatches
// them over scheme launch, clipboard, or REST, tracks one in-flight
// operation per kind, and routes inbound callbacks back to the waiting
// caller
package bridge

import (
	"appbridge/internal/bridge/domain"
	"appbridge/internal/bridge/tracker"
	"appbridge/internal/platform/httpkit"
	"appbridge/internal/platform/logger"
)

// Options wires a Bridge with its collaborators. Pasteboard and Launcher are
// required; Web may be nil when the host never uses browser fallbacks; HTTP
// defaults to a fresh client
type Options struct {
	Host       domain.HostInfo
	Pasteboard domain.Pasteboard
	Launcher   domain.SchemeLauncher
	Web        domain.WebSession
	HTTP       *httpkit.Client
}

// Bridge is process-wide shared state owned by the host. All public calls
// are expected from one goroutine; REST continuations fire once from the
// transport goroutine and resolve through the tracker
type Bridge struct {
	reg *Registry
	trk *tracker.Tracker

	host     domain.HostInfo
	pb       domain.Pasteboard
	launcher domain.SchemeLauncher
	web      domain.WebSession
	http     *httpkit.Client
	log      *logger.Logger

	// alipayOrderScheme remembers the white-label re-entry scheme of the
	// last dispatched Alipay order
	alipayOrderScheme string
	// pocketRequestToken carries the issued request token across the
	// app/browser hand-off until re-entry
	pocketRequestToken string
}

// New returns a Bridge over the given collaborators
func New(opt Options) *Bridge {
	hc := opt.HTTP
	if hc == nil {
		hc = httpkit.New()
	}
	return &Bridge{
		reg:      NewRegistry(),
		trk:      tracker.New(),
		host:     opt.Host,
		pb:       opt.Pasteboard,
		launcher: opt.Launcher,
		web:      opt.Web,
		http:     hc,
		log:      logger.Named("bridge"),
	}
}

// RegisterAccount validates and stores an account; a second account for the
// same vendor replaces the first
func (b *Bridge) RegisterAccount(a domain.Account) error {
	if err := b.reg.Register(a); err != nil {
		return err
	}
	b.log.Debug().Str("vendor", string(a.Vendor)).Str("app_id", a.AppID).Msg("account registered")
	return nil
}

// IsAppReachable reports whether the vendor's external app handles its probe
// scheme on this host
func (b *Bridge) IsAppReachable(v domain.Vendor) bool {
	probe := v.ProbeURL()
	if probe == "" {
		return false
	}
	return b.launcher.CanOpen(probe)
}

// Pending reports whether an operation of the given kind is in flight
func (b *Bridge) Pending(kind domain.OperationKind) bool { return b.trk.Pending(kind) }
