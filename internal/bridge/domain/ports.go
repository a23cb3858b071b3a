package domain

import (
	"context"
	"net/url"
)

// Pasteboard is the shared-clipboard side channel used to pass payloads too
// large or too structured for a scheme URL. Implementations are supplied by
// the host; payload type names are vendor contract
type Pasteboard interface {
	// SetData stores data under the named pasteboard type, replacing any
	// previous items
	SetData(ptype string, data []byte)
	// Data returns the payload stored under the named type, if present
	Data(ptype string) ([]byte, bool)
	// SetItems replaces the pasteboard with an ordered item list, each item
	// a map of type name to payload (the Weibo hand-off shape)
	SetItems(items []map[string][]byte)
	// Items returns the current ordered item list
	Items() []map[string][]byte
}

// SchemeLauncher opens external applications via registered URL schemes
type SchemeLauncher interface {
	// CanOpen reports whether something handles the URL's scheme
	CanOpen(rawurl string) bool
	// Open launches the URL's handler; an error means the launch failed
	Open(rawurl string) error
}

// WebSession is the browser-delegated flow collaborator: it opens a vendor
// URL and surfaces navigations back to the bridge. Only one session may be
// live at a time; Begin while one is active must fail, not queue
type WebSession interface {
	// Begin opens authURL and invokes onRedirect for each captured
	// navigation. onRedirect returning true completes the flow and tears the
	// session down
	Begin(ctx context.Context, authURL string, onRedirect func(*url.URL) bool) error
	// Cancel tears down the live session, if any
	Cancel()
}
