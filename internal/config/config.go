package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fpltools/fpl-mcp/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	MCPPath                     string
	FPLBaseURL                  string
	FPLLoginURL                 string
	FPLUserAgent                string
	FPLTimeout                  time.Duration
	FPLCacheTTL                 time.Duration
	FPLSessionTTL               time.Duration
	FPLAuthWorkers              int
	FPLCircuitEnabled           bool
	FPLCircuitFailureCount      int
	FPLCircuitOpenTimeout       time.Duration
	FPLCircuitHalfOpenMaxReq    int
	FPLEmail                    string
	FPLPassword                 string
	FPLTeamID                   int
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	LogLevel                    logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	fplTimeout, err := time.ParseDuration(getEnv("FPL_HTTP_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_HTTP_TIMEOUT: %w", err)
	}
	if fplTimeout <= 0 {
		return Config{}, fmt.Errorf("FPL_HTTP_TIMEOUT must be > 0")
	}

	fplCacheTTL, err := time.ParseDuration(getEnv("FPL_CACHE_TTL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CACHE_TTL: %w", err)
	}
	if fplCacheTTL <= 0 {
		return Config{}, fmt.Errorf("FPL_CACHE_TTL must be > 0")
	}

	fplSessionTTL, err := time.ParseDuration(getEnv("FPL_SESSION_TTL", "2h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_SESSION_TTL: %w", err)
	}
	if fplSessionTTL <= 0 {
		return Config{}, fmt.Errorf("FPL_SESSION_TTL must be > 0")
	}

	fplAuthWorkers, err := getEnvAsInt("FPL_AUTH_WORKERS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_AUTH_WORKERS: %w", err)
	}
	if fplAuthWorkers < 1 {
		return Config{}, fmt.Errorf("FPL_AUTH_WORKERS must be >= 1")
	}

	fplCircuitEnabled, err := strconv.ParseBool(getEnv("FPL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CIRCUIT_ENABLED: %w", err)
	}
	fplCircuitFailureCount, err := getEnvAsInt("FPL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if fplCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("FPL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	fplCircuitOpenTimeout, err := time.ParseDuration(getEnv("FPL_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if fplCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("FPL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	fplCircuitHalfOpenMaxReq, err := getEnvAsInt("FPL_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if fplCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("FPL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	// Credentials are optional: without them the server still serves every
	// public operation, and authenticated tools report not-configured.
	fplTeamID := 0
	if raw := strings.TrimSpace(getEnv("FPL_TEAM_ID", "")); raw != "" {
		fplTeamID, err = strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse FPL_TEAM_ID: %w", err)
		}
		if fplTeamID <= 0 {
			return Config{}, fmt.Errorf("FPL_TEAM_ID must be > 0")
		}
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	mcpPath := strings.TrimSpace(getEnv("APP_MCP_PATH", "/mcp"))
	if !strings.HasPrefix(mcpPath, "/") {
		return Config{}, fmt.Errorf("APP_MCP_PATH must start with /")
	}

	cfg := Config{
		AppEnv:                   appEnv,
		ServiceName:              getEnv("APP_SERVICE_NAME", "fpl-mcp"),
		ServiceVersion:           getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                 getEnv("APP_HTTP_ADDR", ":8080"),
		MCPPath:                  mcpPath,
		FPLBaseURL:               strings.TrimRight(getEnv("FPL_API_BASE_URL", "https://fantasy.premierleague.com/api"), "/"),
		FPLLoginURL:              getEnv("FPL_LOGIN_URL", "https://users.premierleague.com/accounts/login/"),
		FPLUserAgent:             getEnv("FPL_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		FPLTimeout:               fplTimeout,
		FPLCacheTTL:              fplCacheTTL,
		FPLSessionTTL:            fplSessionTTL,
		FPLAuthWorkers:           fplAuthWorkers,
		FPLCircuitEnabled:        fplCircuitEnabled,
		FPLCircuitFailureCount:   fplCircuitFailureCount,
		FPLCircuitOpenTimeout:    fplCircuitOpenTimeout,
		FPLCircuitHalfOpenMaxReq: fplCircuitHalfOpenMaxReq,
		FPLEmail:                 strings.TrimSpace(getEnv("FPL_EMAIL", "")),
		FPLPassword:              getEnv("FPL_PASSWORD", ""),
		FPLTeamID:                fplTeamID,
		ReadTimeout:              readTimeout,
		WriteTimeout:             writeTimeout,
		LogLevel:                 parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	return cfg, nil
}

// CredentialsConfigured reports whether all three values needed for
// authenticated access are present.
func (c Config) CredentialsConfigured() bool {
	return c.FPLEmail != "" && c.FPLPassword != "" && c.FPLTeamID > 0
}

// MissingCredentials names the absent credential variables, in a fixed order.
func (c Config) MissingCredentials() []string {
	var missing []string
	if c.FPLEmail == "" {
		missing = append(missing, "FPL_EMAIL")
	}
	if c.FPLPassword == "" {
		missing = append(missing, "FPL_PASSWORD")
	}
	if c.FPLTeamID <= 0 {
		missing = append(missing, "FPL_TEAM_ID")
	}

	return missing
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
