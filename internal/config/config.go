package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
)

// Config stores runtime configuration for the roster web client.
type Config struct {
	AppEnv                         string
	ServiceName                    string
	ServiceVersion                 string
	HTTPAddr                       string
	ReadTimeout                    time.Duration
	WriteTimeout                   time.Duration
	LogLevel                       logging.Level
	PuppyBowlBaseURL               string
	PuppyBowlCohort                string
	PuppyBowlTimeout               time.Duration
	PuppyBowlCircuitEnabled        bool
	PuppyBowlCircuitFailureCount   int
	PuppyBowlCircuitOpenTimeout    time.Duration
	PuppyBowlCircuitHalfOpenMaxReq int
	SessionTTL                     time.Duration
	SessionCookieSecure            bool
	MetricsEnabled                 bool
	UptraceEnabled                 bool
	UptraceDSN                     string
	PprofEnabled                   bool
	PprofAddr                      string
	PyroscopeEnabled               bool
	PyroscopeServerAddress         string
	PyroscopeAppName               string
	PyroscopeAuthToken             string
	PyroscopeUploadRate            time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(getEnv("PUPPYBOWL_BASE_URL", DefaultPuppyBowlBaseURL)), "/")
	if err := validateBaseURL(baseURL); err != nil {
		return Config{}, fmt.Errorf("parse PUPPYBOWL_BASE_URL: %w", err)
	}
	cohort := strings.Trim(strings.TrimSpace(getEnv("PUPPYBOWL_COHORT", DefaultPuppyBowlCohort)), "/")
	if cohort == "" {
		return Config{}, fmt.Errorf("PUPPYBOWL_COHORT cannot be empty")
	}
	// Zero keeps remote calls unbounded: an issued call is awaited until it settles.
	puppyBowlTimeout, err := time.ParseDuration(getEnv("PUPPYBOWL_TIMEOUT", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PUPPYBOWL_TIMEOUT: %w", err)
	}
	if puppyBowlTimeout < 0 {
		return Config{}, fmt.Errorf("PUPPYBOWL_TIMEOUT must be >= 0")
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("PUPPYBOWL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PUPPYBOWL_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := getEnvAsInt("PUPPYBOWL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PUPPYBOWL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailureCount < 1 {
		return Config{}, fmt.Errorf("PUPPYBOWL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := time.ParseDuration(getEnv("PUPPYBOWL_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PUPPYBOWL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if circuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("PUPPYBOWL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	circuitHalfOpenMaxReq, err := getEnvAsInt("PUPPYBOWL_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse PUPPYBOWL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("PUPPYBOWL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	if sessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be > 0")
	}
	cookieSecureDefault := "false"
	if appEnv == EnvProd {
		cookieSecureDefault = "true"
	}
	sessionCookieSecure, err := strconv.ParseBool(getEnv("SESSION_COOKIE_SECURE", cookieSecureDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SESSION_COOKIE_SECURE: %w", err)
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                         appEnv,
		ServiceName:                    getEnv("APP_SERVICE_NAME", "puppy-bowl-web"),
		ServiceVersion:                 getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                       strings.TrimSpace(getEnv("APP_HTTP_ADDR", ":8080")),
		ReadTimeout:                    readTimeout,
		WriteTimeout:                   writeTimeout,
		LogLevel:                       logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		PuppyBowlBaseURL:               baseURL,
		PuppyBowlCohort:                cohort,
		PuppyBowlTimeout:               puppyBowlTimeout,
		PuppyBowlCircuitEnabled:        circuitEnabled,
		PuppyBowlCircuitFailureCount:   circuitFailureCount,
		PuppyBowlCircuitOpenTimeout:    circuitOpenTimeout,
		PuppyBowlCircuitHalfOpenMaxReq: circuitHalfOpenMaxReq,
		SessionTTL:                     sessionTTL,
		SessionCookieSecure:            sessionCookieSecure,
		MetricsEnabled:                 metricsEnabled,
		UptraceEnabled:                 uptraceEnabled,
		UptraceDSN:                     uptraceDSN,
		PprofEnabled:                   pprofEnabled,
		PprofAddr:                      pprofAddr,
		PyroscopeEnabled:               pyroscopeEnabled,
		PyroscopeServerAddress:         pyroscopeServerAddress,
		PyroscopeAuthToken:             strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:            pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.HTTPAddr == "" {
		return Config{}, fmt.Errorf("APP_HTTP_ADDR cannot be empty")
	}

	return cfg, nil
}

const (
	DefaultPuppyBowlBaseURL = "https://fsa-puppy-bowl.herokuapp.com/api"
	DefaultPuppyBowlCohort  = "2505-Cody"
)

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

func validateBaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q uses unsupported scheme %q; expected http or https", raw, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q has empty host", raw)
	}
	return nil
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
