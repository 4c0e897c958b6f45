package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/campusware/campus-ui-api/internal/ports"
)

// LogoutServiceOptions groups dependencies for LogoutService.
type LogoutServiceOptions struct {
	Sessions  *SessionService
	Sweepers  []ports.Sweeper
	Discovery ports.DiscoveryResolver
	ClientID  string

	// PostLogoutRedirectURL is where the IdP sends the browser after its
	// hosted logout completes.
	PostLogoutRedirectURL string

	// SignInPath is the local fallback destination when the IdP logout URL
	// cannot be built.
	SignInPath string

	Logger *slog.Logger
}

// LogoutService tears a session down in a fixed order: purge per-session
// server state, invalidate the session record, then hand the browser to the
// IdP's hosted logout so the IdP-side cookies die too. Earlier steps are
// best-effort; local state must be gone even when the IdP is unreachable.
type LogoutService struct {
	sessions              *SessionService
	sweepers              []ports.Sweeper
	discovery             ports.DiscoveryResolver
	clientID              string
	postLogoutRedirectURL string
	signInPath            string
	logger                *slog.Logger
}

// NewLogoutService constructs a new LogoutService.
func NewLogoutService(opts LogoutServiceOptions) *LogoutService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	signInPath := opts.SignInPath
	if signInPath == "" {
		signInPath = "/auth/login"
	}
	return &LogoutService{
		sessions:              opts.Sessions,
		sweepers:              opts.Sweepers,
		discovery:             opts.Discovery,
		clientID:              opts.ClientID,
		postLogoutRedirectURL: opts.PostLogoutRedirectURL,
		signInPath:            signInPath,
		logger:                logger,
	}
}

// Logout performs the full teardown and returns the URL to send the browser
// to. It never returns an error for IdP-side problems: by the time the
// redirect target is computed, local state is already gone, and the worst
// case is landing on the local sign-in page instead of the hosted logout.
func (s *LogoutService) Logout(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		return s.signInPath
	}

	// Step 1: sweep per-session auxiliary state. All sweepers run; a
	// failing one is logged and skipped.
	g, gctx := errgroup.WithContext(ctx)
	for _, sweeper := range s.sweepers {
		g.Go(func() error {
			if err := sweeper.Sweep(gctx, sessionID); err != nil {
				s.logger.Warn("logout sweep failed", "session_id", sessionID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait() // sweepers never return errors, see above

	// Step 2: invalidate the session record.
	if err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		s.logger.Error("logout session invalidation failed", "session_id", sessionID, "error", err)
	}

	// Step 3: compute the IdP hosted-logout URL.
	target, err := s.idpLogoutURL(ctx)
	if err != nil {
		s.logger.Warn("idp logout url unavailable, falling back to sign-in", "error", err)
		return s.signInPath
	}

	s.logger.Info("session logged out", "session_id", sessionID)
	return target
}

// idpLogoutURL derives the hosted logout endpoint from the authorization
// endpoint's origin. The logout endpoint is not part of the discovery
// document for this IdP family; it lives at a fixed path on the same host.
func (s *LogoutService) idpLogoutURL(ctx context.Context) (string, error) {
	if s.discovery == nil {
		return "", errors.New("no discovery resolver configured")
	}
	authzEndpoint, err := s.discovery.AuthorizationEndpoint(ctx)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(authzEndpoint)
	if err != nil {
		return "", err
	}

	logout := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/logout"}
	q := logout.Query()
	q.Set("client_id", s.clientID)
	if s.postLogoutRedirectURL != "" {
		q.Set("logout_uri", s.postLogoutRedirectURL)
	}
	logout.RawQuery = q.Encode()
	return logout.String(), nil
}
