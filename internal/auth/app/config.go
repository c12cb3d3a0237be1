package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/service"
	"github.com/aussiebroadwan/hotellisting/pkg/authsdk"
	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned when required settings are missing or malformed.
var ErrInvalidConfig = errors.New("invalid configuration")

// Token store backends.
const (
	TokenStoreSQLite = "sqlite"
	TokenStoreRedis  = "redis"
)

type Config struct {
	JWTKey             string // Required: shared HS256 signing secret
	JWTIssuer          string // Required: "iss" claim written and expected
	JWTAudience        string // Required: "aud" claim written and expected
	JWTDurationMinutes int    // Required: access token lifetime in minutes

	BootstrapToken string // Optional: token required to perform bootstrap

	DatabaseFile         string                 // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile           string                 // Optional: path to file containing pepper for password hashing (default: ./pepper)
	TokenStore           string                 // Optional: refresh token slot backend (sqlite, redis) (default: sqlite)
	RedisURL             string                 // Optional: redis:// URL, required when TokenStore is redis
	TrustProxyHeaders    bool                   // Optional: rate limit by X-Forwarded-For / X-Real-IP (default: false)
	RefreshTokenLifespan time.Duration          // Optional: refresh token lifetime (default: 24h)
	PasswordPolicy       service.PasswordPolicy // Optional: PASSWORD_* overrides of the default policy
	Env                  string                 // Environment (dev, staging, prod) (default: dev)
	LogLevel             string                 // Log level (debug, info, warn, error) (default: info)
	LogFormat            string                 // Log format (json, text) (default: json)
	Port                 int                    // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration          // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration          // Housekeeping interval (default: 1h)
}

// JWTDuration is the access token lifetime.
func (c Config) JWTDuration() time.Duration {
	return time.Duration(c.JWTDurationMinutes) * time.Minute
}

// LoadConfig reads the configuration from the environment, after loading the
// file named by AUTH_ENV_FILE (or ./.env when present). Variables already set
// in the environment win over the file.
func LoadConfig() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}
	httpx.LoadRateLimitsFromEnv()

	defaults := service.DefaultPasswordPolicy()
	cfg := Config{
		JWTKey:             os.Getenv("JWT_KEY"),
		JWTIssuer:          os.Getenv("JWT_ISSUER"),
		JWTAudience:        os.Getenv("JWT_AUDIENCE"),
		JWTDurationMinutes: getEnvIntOrDefault("JWT_DURATION_MINUTES", 0),
		BootstrapToken: os.Getenv(
			"BOOTSTRAP_TOKEN",
		), // Optional: if set, required to perform bootstrap
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		TokenStore:           strings.ToLower(getEnvOrDefault("AUTH_TOKEN_STORE", TokenStoreSQLite)),
		RedisURL:             os.Getenv("REDIS_URL"),
		TrustProxyHeaders:    getEnvBoolOrDefault("AUTH_TRUST_PROXY_HEADERS", false),
		RefreshTokenLifespan: getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_LIFESPAN", service.DefaultRefreshTokenLifespan),
		PasswordPolicy: service.PasswordPolicy{
			RequiredLength:         getEnvIntOrDefault("PASSWORD_MIN_LENGTH", defaults.RequiredLength),
			MaxLength:              defaults.MaxLength,
			RequireDigit:           getEnvBoolOrDefault("PASSWORD_REQUIRE_DIGIT", defaults.RequireDigit),
			RequireLowercase:       getEnvBoolOrDefault("PASSWORD_REQUIRE_LOWER", defaults.RequireLowercase),
			RequireUppercase:       getEnvBoolOrDefault("PASSWORD_REQUIRE_UPPER", defaults.RequireUppercase),
			RequireNonAlphanumeric: getEnvBoolOrDefault("PASSWORD_REQUIRE_NON_ALNUM", defaults.RequireNonAlphanumeric),
		},
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg, cfg.Validate()
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var problems []string

	if c.JWTKey == "" {
		problems = append(problems, "JWT_KEY is required")
	}
	if c.JWTIssuer == "" {
		problems = append(problems, "JWT_ISSUER is required")
	}
	if c.JWTAudience == "" {
		problems = append(problems, "JWT_AUDIENCE is required")
	}
	if c.JWTDurationMinutes <= 0 {
		problems = append(problems, "JWT_DURATION_MINUTES must be a positive integer")
	}

	switch c.TokenStore {
	case TokenStoreSQLite:
	case TokenStoreRedis:
		if c.RedisURL == "" {
			problems = append(problems, "REDIS_URL is required when AUTH_TOKEN_STORE=redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("AUTH_TOKEN_STORE %q is not one of sqlite, redis", c.TokenStore))
	}

	if c.RefreshTokenLifespan <= 0 {
		problems = append(problems, "AUTH_REFRESH_TOKEN_LIFESPAN must be positive")
	}
	// Registration must not accept a password that login turns away.
	if n := c.PasswordPolicy.RequiredLength; n < authsdk.LoginPasswordMinLength || n > authsdk.LoginPasswordMaxLength {
		problems = append(problems, fmt.Sprintf("PASSWORD_MIN_LENGTH must be between %d and %d",
			authsdk.LoginPasswordMinLength, authsdk.LoginPasswordMaxLength))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// loadEnvFile loads AUTH_ENV_FILE, failing if it was named but is missing.
// Without AUTH_ENV_FILE a missing ./.env is fine.
func loadEnvFile() error {
	path, named := os.LookupEnv("AUTH_ENV_FILE")
	if !named || path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !named {
			return nil
		}
		return fmt.Errorf("%w: env file %s: %v", ErrInvalidConfig, path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: env file %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
