package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	domain "github.com/fpltools/fpl-mcp/internal/domain/fpl"
	"github.com/fpltools/fpl-mcp/internal/platform/cache"
	"github.com/fpltools/fpl-mcp/internal/platform/logging"
	"github.com/fpltools/fpl-mcp/internal/platform/resilience"
	"github.com/fpltools/fpl-mcp/internal/usecase"
)

const (
	defaultBaseURL   = "https://fantasy.premierleague.com/api"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	pathBootstrap = "/bootstrap-static/"
	pathFixtures  = "/fixtures/"

	maxResponseBytes = 16 << 20
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	Logger         *logging.Logger
	Cache          *cache.Store
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the public statistics endpoints. Responses are memoized in
// the shared cache store keyed by request path, so every public operation
// within the cache TTL is served from one upstream round trip.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	logger         *logging.Logger
	store          *cache.Store
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.Flight[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		logger:         logger,
		store:          cfg.Cache,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Bootstrap(ctx context.Context) (domain.Bootstrap, error) {
	var out domain.Bootstrap
	if err := c.getJSON(ctx, pathBootstrap, &out, false); err != nil {
		return domain.Bootstrap{}, fmt.Errorf("fetch bootstrap: %w", err)
	}

	return out, nil
}

func (c *Client) Fixtures(ctx context.Context) ([]domain.Fixture, error) {
	var out []domain.Fixture
	if err := c.getJSON(ctx, pathFixtures, &out, false); err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}

	return out, nil
}

// Snapshot loads the bootstrap catalogue and the fixture list concurrently.
// The two payloads cover almost every public operation, so they are the hot
// pair after a cache expiry.
func (c *Client) Snapshot(ctx context.Context) (domain.Bootstrap, []domain.Fixture, error) {
	var (
		bootstrap domain.Bootstrap
		fixtures  []domain.Fixture
	)

	group := pool.New().WithContext(ctx).WithCancelOnError()
	group.Go(func(ctx context.Context) error {
		out, err := c.Bootstrap(ctx)
		if err != nil {
			return err
		}
		bootstrap = out
		return nil
	})
	group.Go(func(ctx context.Context) error {
		out, err := c.Fixtures(ctx)
		if err != nil {
			return err
		}
		fixtures = out
		return nil
	})
	if err := group.Wait(); err != nil {
		return domain.Bootstrap{}, nil, err
	}

	return bootstrap, fixtures, nil
}

func (c *Client) Entry(ctx context.Context, entryID int) (domain.Entry, error) {
	if entryID <= 0 {
		return domain.Entry{}, fmt.Errorf("%w: entry id must be greater than zero", usecase.ErrInvalidInput)
	}

	var out domain.Entry
	// Manager pages move between requests (rank, gameweek points), so the
	// read bypasses the cache; the write still refreshes it.
	path := fmt.Sprintf("/entry/%d/", entryID)
	if err := c.getJSON(ctx, path, &out, true); err != nil {
		return domain.Entry{}, fmt.Errorf("fetch entry entry_id=%d: %w", entryID, err)
	}

	return out, nil
}

func (c *Client) LeagueStandings(ctx context.Context, leagueID int) (domain.LeagueStandings, error) {
	if leagueID <= 0 {
		return domain.LeagueStandings{}, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}

	var out domain.LeagueStandings
	path := fmt.Sprintf("/leagues-classic/%d/standings/", leagueID)
	if err := c.getJSON(ctx, path, &out, false); err != nil {
		return domain.LeagueStandings{}, fmt.Errorf("fetch league standings league_id=%d: %w", leagueID, err)
	}

	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any, fresh bool) error {
	raw, err := c.fetchRaw(ctx, path, fresh)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode fpl payload: %w", err)
	}

	return nil
}

// fetchRaw serves path from the cache unless fresh is set; either way a
// successful response is written back to the cache.
func (c *Client) fetchRaw(ctx context.Context, path string, fresh bool) ([]byte, error) {
	key := "fpl:" + path
	if !fresh && c.store != nil {
		if cached, ok := c.store.Get(ctx, key); ok {
			if raw, ok := cached.([]byte); ok {
				return raw, nil
			}
		}
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fantasy data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.flight.Do(key, func() ([]byte, error) {
		if !fresh && c.store != nil {
			if cached, ok := c.store.Get(ctx, key); ok {
				if body, ok := cached.([]byte); ok {
					return body, nil
				}
			}
		}

		body, reqErr := c.executeRequest(ctx, c.baseURL+path)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFPLTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		if reqErr != nil {
			return nil, reqErr
		}

		if c.store != nil {
			c.store.Set(ctx, key, body)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		lastErr := fmt.Errorf("%w: send request: %v", errFPLTransient, err)
		c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
		return nil, fmt.Errorf("%w: %w", usecase.ErrUpstream, lastErr)
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: %w: read response body: %v", usecase.ErrUpstream, errFPLTransient, readErr)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: provider status=404", usecase.ErrNotFound)
	case isTransientStatus(resp.StatusCode):
		lastErr := fmt.Errorf("%w: provider status=%d body=%s", errFPLTransient, resp.StatusCode, abbreviateBody(raw))
		c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
		return nil, fmt.Errorf("%w: %w", usecase.ErrUpstream, lastErr)
	default:
		return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstream, resp.StatusCode, abbreviateBody(raw))
	}
}

func isTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}
