package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// CORSAllowedOrigins lists browser origins allowed to call the API with credentials.
	CORSAllowedOrigins []string
	// TrustedProxies lists CIDRs whose X-Forwarded-For header is honored.
	TrustedProxies []string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Catastro CatastroConfig
	Cedula   CedulaConfig
	Billing  BillingConfig
	Workers  WorkersConfig
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// RedisConfig configures the optional Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig configures tokens, cookies and the bootstrap administrator.
type AuthConfig struct {
	JWTSigningKey          string
	JWTIssuer              string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	CookieSecure           bool
	BootstrapAdminUser     string
	BootstrapAdminPassword string
	LoginMaxFailures       int
	LoginLockWindow        time.Duration
	LoginLockDuration      time.Duration
}

// CatastroConfig configures the cadastre WFS client.
type CatastroConfig struct {
	WFSURL           string
	Layer            string
	Timeout          time.Duration
	BatchConcurrency int
	BreakerFailures  int
	BreakerCooldown  time.Duration
}

// CedulaConfig configures the national ID lookup client.
type CedulaConfig struct {
	APIURL   string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// BillingConfig configures subscription enforcement.
type BillingConfig struct {
	SubscriptionGate bool
}

// WorkersConfig configures background maintenance.
type WorkersConfig struct {
	CleanupInterval time.Duration
}

// IsProduction reports whether the process runs with production safeguards.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds the configuration from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	cfg := Server{
		Addr:               getString("REGISTRO_ADDR", ":8080"),
		Environment:        getString("ENVIRONMENT", "development"),
		LogLevel:           getString("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		TrustedProxies:     getList("TRUSTED_PROXIES", nil),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25, &errs),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute, &errs),
			TxTimeout:       getDuration("DB_TX_TIMEOUT", 5*time.Second, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Auth: AuthConfig{
			JWTSigningKey:          getString("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:              getString("JWT_ISSUER", "registro"),
			AccessTokenTTL:         getDuration("ACCESS_TOKEN_TTL", 15*time.Minute, &errs),
			RefreshTokenTTL:        getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour, &errs),
			CookieSecure:           getBool("COOKIE_SECURE", false, &errs),
			BootstrapAdminUser:     os.Getenv("BOOTSTRAP_ADMIN_USER"),
			BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
			LoginMaxFailures:       getInt("LOGIN_MAX_FAILURES", 5, &errs),
			LoginLockWindow:        getDuration("LOGIN_LOCK_WINDOW", 15*time.Minute, &errs),
			LoginLockDuration:      getDuration("LOGIN_LOCK_DURATION", 15*time.Minute, &errs),
		},
		Catastro: CatastroConfig{
			WFSURL:           os.Getenv("CATASTRO_WFS_URL"),
			Layer:            getString("CATASTRO_WFS_LAYER", "catastro:parcelas"),
			Timeout:          getDuration("CATASTRO_TIMEOUT", 10*time.Second, &errs),
			BatchConcurrency: getInt("CATASTRO_BATCH_CONCURRENCY", 4, &errs),
			BreakerFailures:  getInt("CATASTRO_BREAKER_FAILURES", 5, &errs),
			BreakerCooldown:  getDuration("CATASTRO_BREAKER_COOLDOWN", 30*time.Second, &errs),
		},
		Cedula: CedulaConfig{
			APIURL:   os.Getenv("CEDULA_API_URL"),
			APIKey:   os.Getenv("CEDULA_API_KEY"),
			Timeout:  getDuration("CEDULA_TIMEOUT", 5*time.Second, &errs),
			CacheTTL: getDuration("CEDULA_CACHE_TTL", 24*time.Hour, &errs),
		},
		Billing: BillingConfig{
			SubscriptionGate: getBool("SUBSCRIPTION_GATE", false, &errs),
		},
		Workers: WorkersConfig{
			CleanupInterval: getDuration("CLEANUP_INTERVAL", 15*time.Minute, &errs),
		},
	}

	if cfg.IsProduction() {
		if cfg.Auth.JWTSigningKey == devSigningKey {
			errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
		}
		if !cfg.Auth.CookieSecure {
			errs = append(errs, errors.New("COOKIE_SECURE must be true in production"))
		}
	}
	if cfg.Catastro.BatchConcurrency < 1 {
		errs = append(errs, errors.New("CATASTRO_BATCH_CONCURRENCY must be at least 1"))
	}

	if err := errors.Join(errs...); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(key string, def int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func getBool(key string, def bool, errs *[]error) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
