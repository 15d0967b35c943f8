// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DBConfig holds the postgres connection settings.
type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// Config is the process configuration read from the environment.
type Config struct {
	HTTPAddr    string
	DB          DBConfig
	AMQPURL     string
	RecalcQueue string

	LogLevel  string
	LogFormat string

	SessionTTL         time.Duration
	DuplicateABMessage string
	UnpackVirtualRows  bool
	LookupLimit        int
}

// Load reads a .env file when present and then the environment. The
// returned bool reports whether a .env file was loaded.
func Load(files ...string) (*Config, bool, error) {
	loaded := godotenv.Load(files...) == nil

	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		DB: DBConfig{
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "campaign_evaluation"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		AMQPURL:            os.Getenv("AMQP_URL"),
		RecalcQueue:        getEnv("RECALC_QUEUE", "evaluation_recalculations"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		DuplicateABMessage: os.Getenv("DUPLICATE_AB_MESSAGE"),
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, loaded, err
	}
	if cfg.UnpackVirtualRows, err = getBool("UNPACK_VIRTUAL_ROWS", false); err != nil {
		return nil, loaded, err
	}
	if cfg.LookupLimit, err = getInt("LOOKUP_LIMIT", 10); err != nil {
		return nil, loaded, err
	}
	return cfg, loaded, nil
}

// DSN builds the lib/pq connection URL.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
