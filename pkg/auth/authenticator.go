package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/registry-dashboard/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var registryAuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "registry_auth_attempts_total",
	Help: "Total registry authentication handshakes by outcome",
}, []string{"outcome"})

// DefaultSystemName is the systemName query parameter of the handshake.
const DefaultSystemName = "PHOENIX"

// Fetcher obtains a fresh token.
type Fetcher interface {
	Authenticate(ctx context.Context) (Token, error)
}

// Config holds the handshake configuration.
type Config struct {
	// BaseURL of the registry, e.g. "https://connect.palturai.com".
	BaseURL string

	// Basic auth credentials.
	Username string
	Password string

	// SystemName is sent as the systemName query parameter.
	SystemName string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
}

// Authenticator performs the registry's basic-auth handshake.
type Authenticator struct {
	httpClient *http.Client
	endpoint   string
	config     Config
	logger     zerolog.Logger
}

// NewAuthenticator validates cfg and creates an Authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if cfg.SystemName == "" {
		cfg.SystemName = DefaultSystemName
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Authenticator{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/authenticate",
		config:     cfg,
		logger:     logging.NewLogger(logging.ComponentAuth),
	}, nil
}

// Authenticate performs the handshake and returns the token carried in the
// response's Authorization header.
func (a *Authenticator) Authenticate(ctx context.Context) (Token, error) {
	params := url.Values{}
	params.Set("systemName", a.config.SystemName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}
	req.SetBasicAuth(a.config.Username, a.config.Password)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		registryAuthAttemptsTotal.WithLabelValues("network_error").Inc()
		a.logger.Error().Err(err).Msg("Authentication request failed")
		return "", &AuthError{Message: "authenticate request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		registryAuthAttemptsTotal.WithLabelValues("rejected").Inc()
		a.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("Authentication rejected")
		return "", &AuthError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(resp.Status + " " + string(body)),
		}
	}

	token := Token(resp.Header.Get("Authorization"))
	if token.IsZero() {
		registryAuthAttemptsTotal.WithLabelValues("missing_token").Inc()
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "no token issued", Err: ErrMissingToken}
	}

	registryAuthAttemptsTotal.WithLabelValues("success").Inc()
	a.logger.Info().Msg("Authenticated with registry")
	return token, nil
}

var _ Fetcher = (*Authenticator)(nil)
