// Package webauth implements the browser-delegated flow collaborator as a
// loopback redirect catcher: it opens the vendor's authorization URL in the
// system browser and serves the registered redirect target on 127.0.0.1,
// surfacing each captured navigation back to the bridge
package webauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/logger"
)

// CallbackPath is the loopback path vendors redirect back to
const CallbackPath = "/callback"

const defaultAddr = "127.0.0.1:8910"

// Options configures a Session
type Options struct {
	// Addr is the loopback listen address; defaults to 127.0.0.1:8910
	Addr string
	// Opener launches the authorization URL in the system browser
	Opener domain.SchemeLauncher
}

// Session is the single-instance browser flow. Beginning a second flow
// while one is live fails; it is never queued
type Session struct {
	addr   string
	opener domain.SchemeLauncher
	log    *logger.Logger

	mu     sync.Mutex
	active bool
	srv    *http.Server
}

// NewSession returns a Session over the given options
func NewSession(opt Options) *Session {
	addr := opt.Addr
	if addr == "" {
		addr = defaultAddr
	}
	return &Session{
		addr:   addr,
		opener: opt.Opener,
		log:    logger.Named("webauth"),
	}
}

// RedirectURL is the loopback callback target hosts register with vendors
func (s *Session) RedirectURL() string {
	return "http://" + s.addr + CallbackPath
}

// Begin implements domain.WebSession: it starts the loopback server, opens
// authURL in the browser, and invokes onRedirect for each captured
// navigation. onRedirect returning true tears the session down
func (s *Session) Begin(ctx context.Context, authURL string, onRedirect func(*url.URL) bool) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return perr.SessionActivef("a browser auth session is already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return perr.Wrap(err, perr.ErrorCodeConnectFailed, "loopback listen failed")
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}}))
	r.Use(accessLog)
	r.Get(CallbackPath, func(w http.ResponseWriter, req *http.Request) {
		// token-in-fragment vendors never send the fragment to the server;
		// a tiny script re-submits it as a query parameter
		if req.URL.RawQuery == "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, fragmentForwarderPage)
			return
		}
		captured := *req.URL
		if frag := req.URL.Query().Get("__fragment"); frag != "" {
			captured.Fragment = frag
		}
		if onRedirect(&captured) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, donePage)
			go s.teardown()
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	s.srv = srv
	s.active = true
	s.mu.Unlock()

	go func() {
		if serr := srv.Serve(ln); serr != nil && serr != http.ErrServerClosed {
			s.log.Error().Err(serr).Msg("loopback server stopped")
		}
	}()

	if s.opener != nil {
		if oerr := s.opener.Open(authURL); oerr != nil {
			s.teardown()
			return perr.Wrap(oerr, perr.ErrorCodeSchemeUnavailable, "browser launch failed")
		}
	}
	s.log.Debug().Str("url", authURL).Str("redirect", s.RedirectURL()).Msg("browser session started")
	return nil
}

// Cancel implements domain.WebSession
func (s *Session) Cancel() { s.teardown() }

func (s *Session) teardown() {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.active = false
	s.mu.Unlock()
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("loopback shutdown failed")
	}
}

const fragmentForwarderPage = `<!doctype html><html><body><script>
if (location.hash.length > 1) {
  location.replace(location.pathname + "?__fragment=" + encodeURIComponent(location.hash.substring(1)) + "&" + location.hash.substring(1));
} else {
  document.write("Waiting for the provider redirect...");
}
</script></body></html>`

const donePage = `<!doctype html><html><body>Authentication finished. You can close this window.</body></html>`

// accessLog records each captured navigation
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Named("webauth").Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request done")
	})
}
