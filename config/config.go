package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Mpesa     MpesaConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// TrustedProxies may set X-Forwarded-For; empty means the socket address is the client.
	TrustedProxies []string
}

type DatabaseConfig struct {
	Driver          string // mysql or sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig verifies access tokens issued by the auth backend (HS256, sub = user id).
type JWTConfig struct {
	Secret       string
	Issuer       string
	AdminRole    string
	AccessExpiry time.Duration
}

// Token cache modes.
const (
	TokenCacheNone   = "none"
	TokenCacheMemory = "memory"
	TokenCacheRedis  = "redis"
)

type MpesaConfig struct {
	Environment        string // sandbox or production
	BaseURL            string
	ConsumerKey        string
	ConsumerSecret     string
	ShortCode          string
	PassKey            string
	CallbackURL        string
	CallbackToken      string
	CallbackAllowedIPs []string
	TransactionType    string
	TokenCache         string
	RequestTimeout     time.Duration
	Timezone           string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// ConfigurationError lists every missing or invalid setting found at startup.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "configuration: " + strings.Join(parts, "; ")
}

// IsConfigurationError reports whether err is a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config without validating it.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("ENVIRONMENT", "development"),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 45*time.Second),
			TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			DSN:             os.Getenv("DB_DSN"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			Secret:       os.Getenv("JWT_SECRET"),
			Issuer:       os.Getenv("JWT_ISSUER"),
			AdminRole:    getEnv("JWT_ADMIN_ROLE", "admin"),
			AccessExpiry: getEnvDuration("JWT_ACCESS_EXPIRY", time.Hour),
		},
		Mpesa: MpesaConfig{
			Environment:        getEnv("MPESA_ENVIRONMENT", "sandbox"),
			BaseURL:            os.Getenv("MPESA_BASE_URL"),
			ConsumerKey:        os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret:     os.Getenv("MPESA_CONSUMER_SECRET"),
			ShortCode:          os.Getenv("MPESA_SHORT_CODE"),
			PassKey:            os.Getenv("MPESA_PASS_KEY"),
			CallbackURL:        os.Getenv("MPESA_CALLBACK_URL"),
			CallbackToken:      os.Getenv("MPESA_CALLBACK_TOKEN"),
			CallbackAllowedIPs: getEnvList("MPESA_CALLBACK_ALLOWED_IPS"),
			TransactionType:    getEnv("MPESA_TRANSACTION_TYPE", "CustomerPayBillOnline"),
			TokenCache:         getEnv("MPESA_TOKEN_CACHE", TokenCacheNone),
			RequestTimeout:     getEnvDuration("MPESA_REQUEST_TIMEOUT", 30*time.Second),
			Timezone:           getEnv("MPESA_TIMEZONE", "Africa/Nairobi"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

// Validate checks every required setting. Credentials are never defaulted.
func (c *Config) Validate() error {
	e := &ConfigurationError{}
	required := []struct{ key, val string }{
		{"MPESA_CONSUMER_KEY", c.Mpesa.ConsumerKey},
		{"MPESA_CONSUMER_SECRET", c.Mpesa.ConsumerSecret},
		{"MPESA_SHORT_CODE", c.Mpesa.ShortCode},
		{"MPESA_PASS_KEY", c.Mpesa.PassKey},
		{"MPESA_CALLBACK_URL", c.Mpesa.CallbackURL},
		{"JWT_SECRET", c.JWT.Secret},
		{"DB_DSN", c.Database.DSN},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			e.Missing = append(e.Missing, r.key)
		}
	}
	if c.IsProduction() && c.Mpesa.CallbackToken == "" {
		e.Missing = append(e.Missing, "MPESA_CALLBACK_TOKEN")
	}
	switch c.Mpesa.TokenCache {
	case TokenCacheNone, TokenCacheMemory:
	case TokenCacheRedis:
		if c.Redis.Addr == "" {
			e.Missing = append(e.Missing, "REDIS_ADDR")
		}
	default:
		e.Invalid = append(e.Invalid, "MPESA_TOKEN_CACHE")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		e.Invalid = append(e.Invalid, "DB_DRIVER")
	}
	if c.Mpesa.CallbackURL != "" {
		if u, err := url.Parse(c.Mpesa.CallbackURL); err != nil || u.Scheme == "" || u.Host == "" {
			e.Invalid = append(e.Invalid, "MPESA_CALLBACK_URL")
		} else if c.IsProduction() && u.Scheme != "https" {
			e.Invalid = append(e.Invalid, "MPESA_CALLBACK_URL")
		}
	}
	for _, entry := range c.Mpesa.CallbackAllowedIPs {
		if !validIPOrCIDR(entry) {
			e.Invalid = append(e.Invalid, "MPESA_CALLBACK_ALLOWED_IPS")
			break
		}
	}
	for _, entry := range c.Server.TrustedProxies {
		if !validIPOrCIDR(entry) {
			e.Invalid = append(e.Invalid, "TRUSTED_PROXIES")
			break
		}
	}
	if _, err := time.LoadLocation(c.Mpesa.Timezone); err != nil {
		e.Invalid = append(e.Invalid, "MPESA_TIMEZONE")
	}
	if len(e.Missing) > 0 || len(e.Invalid) > 0 {
		return e
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// MpesaBaseURL resolves the Daraja host for the configured environment.
func (c *Config) MpesaBaseURL() string {
	if c.Mpesa.BaseURL != "" {
		return strings.TrimRight(c.Mpesa.BaseURL, "/")
	}
	if c.Mpesa.Environment == "production" {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}

// MpesaCallbackURL is the URL sent to Daraja, carrying the callback token when one is set.
func (c *Config) MpesaCallbackURL() string {
	if c.Mpesa.CallbackToken == "" {
		return c.Mpesa.CallbackURL
	}
	u, err := url.Parse(c.Mpesa.CallbackURL)
	if err != nil {
		return c.Mpesa.CallbackURL
	}
	q := u.Query()
	q.Set("token", c.Mpesa.CallbackToken)
	u.RawQuery = q.Encode()
	return u.String()
}

// MpesaLocation is the zone used for request timestamps.
func (c *Config) MpesaLocation() *time.Location {
	loc, err := time.LoadLocation(c.Mpesa.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func validIPOrCIDR(s string) bool {
	if _, _, err := net.ParseCIDR(s); err == nil {
		return true
	}
	return net.ParseIP(s) != nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
