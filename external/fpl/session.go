package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"

	domain "github.com/fpltools/fpl-mcp/internal/domain/fpl"
	"github.com/fpltools/fpl-mcp/internal/platform/logging"
	"github.com/fpltools/fpl-mcp/internal/usecase"
)

const (
	defaultLoginURL    = "https://users.premierleague.com/accounts/login/"
	loginApp           = "plfpl-web"
	loginRedirectURI   = "https://fantasy.premierleague.com/a/login"
	defaultSessionTTL  = 2 * time.Hour
	defaultAuthWorkers = 2
)

type SessionConfig struct {
	Email      string
	Password   string
	TeamID     int
	BaseURL    string
	LoginURL   string
	UserAgent  string
	Timeout    time.Duration
	SessionTTL time.Duration
	Workers    int
	Logger     *logging.Logger
}

// SessionManager owns the single authenticated upstream session. A login
// builds a fresh cookie-jar client; the session is reused until it ages past
// the session TTL and is renewed lazily on the next authenticated call.
// The session is the only state reused between calls; authenticated
// responses are never cached. Blocking upstream legs run on a small worker
// pool so a slow login cannot occupy an unbounded number of goroutines.
type SessionManager struct {
	email      string
	password   string
	teamID     int
	baseURL    string
	loginURL   string
	userAgent  string
	timeout    time.Duration
	sessionTTL time.Duration
	logger     *logging.Logger
	pool       *ants.Pool

	mu         sync.Mutex
	session    *http.Client
	loggedInAt time.Time

	now func() time.Time
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = defaultAuthWorkers
	}

	workerPool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create auth worker pool: %w", err)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	loginURL := strings.TrimSpace(cfg.LoginURL)
	if loginURL == "" {
		loginURL = defaultLoginURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &SessionManager{
		email:      strings.TrimSpace(cfg.Email),
		password:   cfg.Password,
		teamID:     cfg.TeamID,
		baseURL:    baseURL,
		loginURL:   loginURL,
		userAgent:  userAgent,
		timeout:    timeout,
		sessionTTL: sessionTTL,
		logger:     logger,
		pool:       workerPool,
		now:        time.Now,
	}, nil
}

func (m *SessionManager) Close() {
	m.pool.Release()
}

func (m *SessionManager) Configured() bool {
	return m.email != "" && m.password != "" && m.teamID > 0
}

// MissingCredentials names the absent credential variables, in a fixed order.
func (m *SessionManager) MissingCredentials() []string {
	var missing []string
	if m.email == "" {
		missing = append(missing, "FPL_EMAIL")
	}
	if m.password == "" {
		missing = append(missing, "FPL_PASSWORD")
	}
	if m.teamID <= 0 {
		missing = append(missing, "FPL_TEAM_ID")
	}

	return missing
}

func (m *SessionManager) TeamID() int {
	return m.teamID
}

func (m *SessionManager) Entry(ctx context.Context) (domain.Entry, error) {
	var out domain.Entry
	path := fmt.Sprintf("/entry/%d/", m.teamID)
	if err := m.authJSON(ctx, path, &out); err != nil {
		return domain.Entry{}, fmt.Errorf("fetch authenticated entry: %w", err)
	}

	return out, nil
}

func (m *SessionManager) Picks(ctx context.Context, entryID, gameweek int) (domain.Picks, error) {
	if entryID <= 0 {
		return domain.Picks{}, fmt.Errorf("%w: entry id must be greater than zero", usecase.ErrInvalidInput)
	}
	if gameweek < 1 || gameweek > domain.FinalGameweek {
		return domain.Picks{}, fmt.Errorf("%w: gameweek must be between 1 and %d", usecase.ErrInvalidInput, domain.FinalGameweek)
	}

	var out domain.Picks
	path := fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gameweek)
	if err := m.authJSON(ctx, path, &out); err != nil {
		return domain.Picks{}, fmt.Errorf("fetch picks entry_id=%d gameweek=%d: %w", entryID, gameweek, err)
	}

	return out, nil
}

func (m *SessionManager) History(ctx context.Context, entryID int) (domain.History, error) {
	if entryID <= 0 {
		return domain.History{}, fmt.Errorf("%w: entry id must be greater than zero", usecase.ErrInvalidInput)
	}

	var out domain.History
	path := fmt.Sprintf("/entry/%d/history/", entryID)
	if err := m.authJSON(ctx, path, &out); err != nil {
		return domain.History{}, fmt.Errorf("fetch entry history entry_id=%d: %w", entryID, err)
	}

	return out, nil
}

func (m *SessionManager) authJSON(ctx context.Context, path string, target any) error {
	raw, err := m.authFetch(ctx, path)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode fpl payload: %w", err)
	}

	return nil
}

// authFetch reads path through the authenticated session. Every call hits
// the upstream; private team state must reflect the account at call time,
// so authenticated responses bypass the response cache entirely.
func (m *SessionManager) authFetch(ctx context.Context, path string) ([]byte, error) {
	if !m.Configured() {
		return nil, fmt.Errorf("%w: missing %s", usecase.ErrNotConfigured, strings.Join(m.MissingCredentials(), ", "))
	}

	session, err := m.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = m.runBlocking(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
		if reqErr != nil {
			return fmt.Errorf("build request: %w", reqErr)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("user-agent", m.userAgent)

		resp, respErr := session.Do(req)
		if respErr != nil {
			return fmt.Errorf("%w: send request: %v", usecase.ErrUpstream, respErr)
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if readErr != nil {
			return fmt.Errorf("%w: read response body: %v", usecase.ErrUpstream, readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			raw = body
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: provider status=404", usecase.ErrNotFound)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: provider status=%d", usecase.ErrUnauthorized, resp.StatusCode)
		default:
			return fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstream, resp.StatusCode, abbreviateBody(body))
		}
	})
	if err != nil {
		// A failed read on a live session does not invalidate the session;
		// the cookies may still be good for the next call.
		return nil, err
	}

	return raw, nil
}

func (m *SessionManager) ensureSession(ctx context.Context) (*http.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil && m.now().Sub(m.loggedInAt) < m.sessionTTL {
		return m.session, nil
	}

	session, err := m.login(ctx)
	if err != nil {
		m.session = nil
		m.loggedInAt = time.Time{}
		return nil, err
	}

	m.session = session
	m.loggedInAt = m.now()
	m.logger.InfoContext(ctx, "fpl session established", "team_id", m.teamID)
	return session, nil
}

func (m *SessionManager) login(ctx context.Context) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	session := &http.Client{
		Timeout: m.timeout,
		Jar:     jar,
	}

	form := url.Values{}
	form.Set("login", m.email)
	form.Set("password", m.password)
	form.Set("app", loginApp)
	form.Set("redirect_uri", loginRedirectURI)

	err = m.runBlocking(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, m.loginURL, strings.NewReader(form.Encode()))
		if reqErr != nil {
			return fmt.Errorf("build login request: %w", reqErr)
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("user-agent", m.userAgent)
		req.Header.Set("accept-language", "en")

		resp, respErr := session.Do(req)
		if respErr != nil {
			return fmt.Errorf("%w: send login request: %v", usecase.ErrUpstream, respErr)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

		if resp.StatusCode >= 400 {
			return fmt.Errorf("%w: login rejected with status=%d", usecase.ErrUnauthorized, resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		m.logger.WarnContext(ctx, "fpl login failed", "error", err)
		return nil, err
	}

	return session, nil
}

// runBlocking executes fn on the worker pool and waits for it, honoring
// context cancellation on the waiting side.
func (m *SessionManager) runBlocking(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if err := m.pool.Submit(func() { done <- fn() }); err != nil {
		return fmt.Errorf("%w: auth worker pool: %v", usecase.ErrDependencyUnavailable, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
