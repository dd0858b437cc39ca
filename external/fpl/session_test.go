package fpl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fpltools/fpl-mcp/internal/platform/logging"
	"github.com/fpltools/fpl-mcp/internal/usecase"
)

const entryBody = `{"id": 1178124, "player_first_name": "Alex", "player_last_name": "Smith", "name": "Smith XI", "summary_overall_points": 512, "summary_overall_rank": 104233}`

type authUpstream struct {
	logins      atomic.Int32
	fetches     atomic.Int32
	loginStatus int
	fetchStatus int
	fetchBody   string
}

func (u *authUpstream) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		u.logins.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse login form: %v", err)
		}
		if got := r.PostFormValue("app"); got != "plfpl-web" {
			t.Errorf("login app = %q, want plfpl-web", got)
		}
		if r.PostFormValue("login") == "" || r.PostFormValue("password") == "" {
			t.Error("login form missing credentials")
		}
		if got := r.Header.Get("accept-language"); got != "en" {
			t.Errorf("login accept-language = %q, want en", got)
		}
		if u.loginStatus >= 400 {
			w.WriteHeader(u.loginStatus)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "pl_profile", Value: "session-token"})
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		u.fetches.Add(1)
		if u.fetchStatus >= 400 {
			w.WriteHeader(u.fetchStatus)
			return
		}
		body := u.fetchBody
		if body == "" {
			body = entryBody
		}
		_, _ = w.Write([]byte(body))
	})
	return mux
}

func newTestSessionManager(t *testing.T, upstream *authUpstream) *SessionManager {
	t.Helper()

	server := httptest.NewServer(upstream.handler(t))
	t.Cleanup(server.Close)

	manager, err := NewSessionManager(SessionConfig{
		Email:      "manager@example.com",
		Password:   "hunter2",
		TeamID:     1178124,
		BaseURL:    server.URL + "/api",
		LoginURL:   server.URL + "/login/",
		Timeout:    5 * time.Second,
		SessionTTL: 2 * time.Hour,
		Workers:    2,
		Logger:     logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	t.Cleanup(manager.Close)
	return manager
}

func TestSessionManager_LoginOncePerWindow(t *testing.T) {
	upstream := &authUpstream{}
	manager := newTestSessionManager(t, upstream)
	ctx := context.Background()

	entry, err := manager.Entry(ctx)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if entry.ID != 1178124 {
		t.Fatalf("entry id = %d", entry.ID)
	}

	// A second read reuses the live session but still hits the upstream.
	if _, err := manager.Entry(ctx); err != nil {
		t.Fatalf("Entry: %v", err)
	}

	if got := upstream.logins.Load(); got != 1 {
		t.Fatalf("logged in %d times, want 1", got)
	}
	if got := upstream.fetches.Load(); got != 2 {
		t.Fatalf("fetched %d times, want 2", got)
	}
}

func TestSessionManager_EntryReflectsUpstreamChanges(t *testing.T) {
	upstream := &authUpstream{}
	manager := newTestSessionManager(t, upstream)
	ctx := context.Background()

	first, err := manager.Entry(ctx)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if first.SummaryOverallPoints != 512 {
		t.Fatalf("points = %d, want 512", first.SummaryOverallPoints)
	}

	// A transfer or captain change must be visible on the very next read.
	upstream.fetchBody = `{"id": 1178124, "player_first_name": "Alex", "player_last_name": "Smith", "name": "Smith XI", "summary_overall_points": 530, "summary_overall_rank": 98111}`
	second, err := manager.Entry(ctx)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if second.SummaryOverallPoints != 530 || second.SummaryOverallRank != 98111 {
		t.Fatalf("stale entry served: %+v", second)
	}

	if got := upstream.fetches.Load(); got != 2 {
		t.Fatalf("fetched %d times, want 2", got)
	}
	if got := upstream.logins.Load(); got != 1 {
		t.Fatalf("logged in %d times, want 1", got)
	}
}

func TestSessionManager_SessionRenewedAfterTTL(t *testing.T) {
	upstream := &authUpstream{}
	manager := newTestSessionManager(t, upstream)
	ctx := context.Background()

	base := time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)
	current := base
	manager.now = func() time.Time { return current }

	if _, err := manager.Entry(ctx); err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if got := upstream.logins.Load(); got != 1 {
		t.Fatalf("logged in %d times, want 1", got)
	}

	current = base.Add(2*time.Hour + time.Minute)
	if _, err := manager.Entry(ctx); err != nil {
		t.Fatalf("Entry after window: %v", err)
	}
	if got := upstream.logins.Load(); got != 2 {
		t.Fatalf("logged in %d times, want 2", got)
	}
}

func TestSessionManager_LoginFailureClearsSession(t *testing.T) {
	upstream := &authUpstream{loginStatus: http.StatusForbidden}
	manager := newTestSessionManager(t, upstream)
	ctx := context.Background()

	_, err := manager.Entry(ctx)
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("err = %v, want %v", err, usecase.ErrUnauthorized)
	}

	manager.mu.Lock()
	cleared := manager.session == nil
	manager.mu.Unlock()
	if !cleared {
		t.Fatal("failed login should clear the session")
	}
	if got := upstream.fetches.Load(); got != 0 {
		t.Fatalf("fetched %d times after failed login, want 0", got)
	}
}

func TestSessionManager_FetchFailureKeepsSession(t *testing.T) {
	upstream := &authUpstream{}
	manager := newTestSessionManager(t, upstream)
	ctx := context.Background()

	if _, err := manager.Entry(ctx); err != nil {
		t.Fatalf("Entry: %v", err)
	}

	upstream.fetchStatus = http.StatusInternalServerError
	if _, err := manager.Entry(ctx); !errors.Is(err, usecase.ErrUpstream) {
		t.Fatalf("err = %v, want %v", err, usecase.ErrUpstream)
	}

	manager.mu.Lock()
	kept := manager.session != nil
	manager.mu.Unlock()
	if !kept {
		t.Fatal("fetch failure on a live session should not clear it")
	}

	upstream.fetchStatus = 0
	if _, err := manager.Entry(ctx); err != nil {
		t.Fatalf("Entry after recovery: %v", err)
	}
	if got := upstream.logins.Load(); got != 1 {
		t.Fatalf("logged in %d times, want 1", got)
	}
}

func TestSessionManager_NotConfigured(t *testing.T) {
	manager, err := NewSessionManager(SessionConfig{
		Email:  "manager@example.com",
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	defer manager.Close()

	if manager.Configured() {
		t.Fatal("manager without password and team id should not be configured")
	}
	missing := manager.MissingCredentials()
	if len(missing) != 2 || missing[0] != "FPL_PASSWORD" || missing[1] != "FPL_TEAM_ID" {
		t.Fatalf("MissingCredentials = %v", missing)
	}

	_, err = manager.Entry(context.Background())
	if !errors.Is(err, usecase.ErrNotConfigured) {
		t.Fatalf("err = %v, want %v", err, usecase.ErrNotConfigured)
	}
}

func TestSessionManager_Picks_RejectsOutOfRangeGameweek(t *testing.T) {
	upstream := &authUpstream{}
	manager := newTestSessionManager(t, upstream)

	for _, gameweek := range []int{0, -1, 39} {
		if _, err := manager.Picks(context.Background(), 1178124, gameweek); !errors.Is(err, usecase.ErrInvalidInput) {
			t.Fatalf("gameweek %d err = %v, want %v", gameweek, err, usecase.ErrInvalidInput)
		}
	}
	if _, err := manager.Picks(context.Background(), 0, 1); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("entry id 0 err = %v, want %v", err, usecase.ErrInvalidInput)
	}
	if got := upstream.fetches.Load(); got != 0 {
		t.Fatalf("fetched %d times for invalid gameweeks, want 0", got)
	}
}
