package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.FPLBaseURL != "https://fantasy.premierleague.com/api" {
		t.Fatalf("FPLBaseURL = %q", cfg.FPLBaseURL)
	}
	if cfg.FPLCacheTTL.Hours() != 1 {
		t.Fatalf("FPLCacheTTL = %v, want 1h", cfg.FPLCacheTTL)
	}
	if cfg.FPLSessionTTL.Hours() != 2 {
		t.Fatalf("FPLSessionTTL = %v, want 2h", cfg.FPLSessionTTL)
	}
	if cfg.MCPPath != "/mcp" {
		t.Fatalf("MCPPath = %q, want /mcp", cfg.MCPPath)
	}
	if cfg.CredentialsConfigured() {
		t.Fatal("credentials should not be configured by default")
	}
}

func TestLoad_MissingCredentialsIsNotAnError(t *testing.T) {
	t.Setenv("FPL_EMAIL", "manager@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CredentialsConfigured() {
		t.Fatal("partial credentials should not count as configured")
	}

	missing := cfg.MissingCredentials()
	if len(missing) != 2 || missing[0] != "FPL_PASSWORD" || missing[1] != "FPL_TEAM_ID" {
		t.Fatalf("MissingCredentials = %v", missing)
	}
}

func TestLoad_FullCredentials(t *testing.T) {
	t.Setenv("FPL_EMAIL", "manager@example.com")
	t.Setenv("FPL_PASSWORD", "hunter2")
	t.Setenv("FPL_TEAM_ID", "1178124")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.CredentialsConfigured() {
		t.Fatal("credentials should be configured")
	}
	if cfg.FPLTeamID != 1178124 {
		t.Fatalf("FPLTeamID = %d", cfg.FPLTeamID)
	}
	if got := cfg.MissingCredentials(); len(got) != 0 {
		t.Fatalf("MissingCredentials = %v, want empty", got)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
		want  string
	}{
		{"FPL_HTTP_TIMEOUT", "soon", "parse FPL_HTTP_TIMEOUT"},
		{"FPL_CACHE_TTL", "-1h", "FPL_CACHE_TTL must be > 0"},
		{"FPL_SESSION_TTL", "0s", "FPL_SESSION_TTL must be > 0"},
		{"FPL_AUTH_WORKERS", "0", "FPL_AUTH_WORKERS must be >= 1"},
		{"FPL_TEAM_ID", "abc", "parse FPL_TEAM_ID"},
		{"FPL_TEAM_ID", "-5", "FPL_TEAM_ID must be > 0"},
		{"APP_MCP_PATH", "mcp", "APP_MCP_PATH must start with /"},
		{"APP_ENV", "local", "invalid APP_ENV"},
	}

	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestLoad_TrimsBaseURLTrailingSlash(t *testing.T) {
	t.Setenv("FPL_API_BASE_URL", "https://fantasy.premierleague.com/api/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FPLBaseURL != "https://fantasy.premierleague.com/api" {
		t.Fatalf("FPLBaseURL = %q", cfg.FPLBaseURL)
	}
}
