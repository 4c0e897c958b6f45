package bootstrap

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/campusware/campus-ui-api/config"
	"github.com/campusware/campus-ui-api/internal/adapters/authroles"
	"github.com/campusware/campus-ui-api/internal/adapters/devauth"
	"github.com/campusware/campus-ui-api/internal/adapters/oidc"
	redisadapter "github.com/campusware/campus-ui-api/internal/adapters/redis"
	"github.com/campusware/campus-ui-api/internal/ports"
	"github.com/campusware/campus-ui-api/internal/service"
	"github.com/campusware/campus-ui-api/internal/tokencache"
)

const wellKnownPath = "/.well-known/openid-configuration"

// AuthConfig contains configuration for the auth stack.
type AuthConfig struct {
	Auth        config.AuthConfig
	HTTP        config.HTTPConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// AuthStack bundles the session, broker, and logout services built for the
// configured auth mode.
type AuthStack struct {
	Sessions *service.SessionService
	Broker   *service.TokenBroker
	Logout   *service.LogoutService
}

// BuildAuthStack wires the auth stack based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthStack(cfg AuthConfig) *AuthStack {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RedisClient == nil {
		logger.Warn("auth stack disabled: redis client not configured", "mode", cfg.Auth.Mode)
		return nil
	}

	// Session store and token cache are shared by both modes.
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")
	tokenCache := tokencache.New(tokencache.Config{Buffer: cfg.Auth.Session.TokenCacheBuffer})
	roleMapper := authroles.NewStaticRoleMapper(cfg.Auth.AdminRoles, cfg.Auth.StaffRoles)

	var (
		provider  ports.AuthProvider
		refresher ports.TokenRefresher
		discovery ports.DiscoveryResolver
	)

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		dev, err := devauth.NewProvider(devauth.Config{
			Subject:    cfg.Auth.DevAuth.Subject,
			TenantID:   cfg.Auth.DevAuth.TenantID,
			TenantTier: cfg.Auth.DevAuth.TenantTier,
			Role:       cfg.Auth.DevAuth.Role,
		})
		if err != nil {
			logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
			return nil
		}
		provider = dev
		refresher = dev

	case config.AuthModeOAuth:
		oauthProvider, oauthRefresher, oauthDiscovery := buildOAuthAdapters(cfg, logger)
		if oauthProvider == nil {
			return nil
		}
		provider = oauthProvider
		refresher = oauthRefresher
		discovery = oauthDiscovery

	default:
		return nil
	}

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Provider:   provider,
		Sessions:   sessionStore,
		Refresher:  refresher,
		Roles:      roleMapper,
		SessionTTL: cfg.Auth.Session.TTL,
		Logger:     logger,
	})

	broker := service.NewTokenBroker(service.TokenBrokerOptions{
		Sessions: sessions,
		Cache:    tokenCache,
		Logger:   logger,
	})

	postLogoutRedirect := cfg.Auth.OAuth.PostLogoutRedirectURL
	if postLogoutRedirect == "" {
		postLogoutRedirect = cfg.HTTP.BaseURL
	}

	logout := service.NewLogoutService(service.LogoutServiceOptions{
		Sessions:              sessions,
		Sweepers:              []ports.Sweeper{sessionStore, tokenCache},
		Discovery:             discovery,
		ClientID:              cfg.Auth.OAuth.ClientID,
		PostLogoutRedirectURL: postLogoutRedirect,
		Logger:                logger,
	})

	return &AuthStack{Sessions: sessions, Broker: broker, Logout: logout}
}

// buildOAuthAdapters constructs the OIDC provider, refresh client, and shared
// discovery cache. All three return nil when required config is missing.
func buildOAuthAdapters(cfg AuthConfig, logger *slog.Logger) (ports.AuthProvider, ports.TokenRefresher, ports.DiscoveryResolver) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
			"discovery_url_empty", oauth.DiscoveryURL == "",
			"client_id_empty", oauth.ClientID == "",
			"client_secret_empty", oauth.ClientSecret == "",
		)
		return nil, nil, nil
	}

	httpClient := &http.Client{Timeout: oauth.IdPTimeout}

	discovery, err := oidc.NewDiscoveryCache(oidc.DiscoveryCacheConfig{
		WellKnownURL: wellKnownURL(oauth.DiscoveryURL),
		HTTPClient:   httpClient,
	})
	if err != nil {
		logger.Warn("failed to create discovery cache, auth disabled", "error", err)
		return nil, nil, nil
	}

	claims, err := oidc.NewClaimMapper(oidc.ClaimMapperConfig{
		TenantIDPath:   cfg.Auth.Claims.TenantIDPath,
		TenantTierPath: cfg.Auth.Claims.TenantTierPath,
		RolePath:       cfg.Auth.Claims.RolePath,
	})
	if err != nil {
		logger.Warn("invalid claim mapping, auth disabled", "error", err)
		return nil, nil, nil
	}

	provider, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		Claims:       claims,
		HTTPClient:   httpClient,
	})
	if err != nil {
		logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		return nil, nil, nil
	}

	refresher, err := oidc.NewRefreshClient(oidc.RefreshClientConfig{
		Discovery:  discovery,
		ClientID:   oauth.ClientID,
		Scope:      oauth.Scope,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Warn("failed to create refresh client, auth disabled", "error", err)
		return nil, nil, nil
	}

	return provider, refresher, discovery
}

// wellKnownURL normalizes a discovery URL to the full well-known document URL.
// Config may carry either the bare issuer or the full document path.
func wellKnownURL(discoveryURL string) string {
	if strings.HasSuffix(discoveryURL, wellKnownPath) {
		return discoveryURL
	}
	return strings.TrimSuffix(discoveryURL, "/") + wellKnownPath
}
