package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port         int
	DBDSN        string
	DBTimeout    time.Duration
	AutoSchema   bool
	RedisURL     string
	CacheTTL     time.Duration
	AllowOrigins []string
	RateLimit    RateLimitConfig
	LogLevel     zerolog.Level
	LogJSON      bool
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// CacheEnabled indica se há Redis configurado.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = resolveDSN()

	if cfg.DBTimeout, err = parseDurationEnv("DB_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}

	if cfg.AutoSchema, err = parseBoolEnv("AUTO_SCHEMA", true); err != nil {
		return nil, err
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	if cfg.CacheTTL, err = parseDurationEnv("CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil || rps <= 0 {
		return nil, errors.New("RATE_LIMIT_RPS inválido")
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil || burst <= 0 {
		return nil, errors.New("RATE_LIMIT_BURST inválido")
	}
	cfg.RateLimit = RateLimitConfig{RequestsPerSecond: rps, Burst: burst}

	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, errors.New("LOG_LEVEL inválido")
	}
	cfg.LogLevel = level
	cfg.LogJSON = strings.EqualFold(getEnv("LOG_FORMAT", "console"), "json")

	return cfg, nil
}

// resolveDSN aceita DB_DSN, DATABASE_URL ou as variáveis DB_* separadas.
func resolveDSN() string {
	if dsn := strings.TrimSpace(getEnv("DB_DSN", "")); dsn != "" {
		return dsn
	}
	if dsn := strings.TrimSpace(getEnv("DATABASE_URL", "")); dsn != "" {
		return dsn
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnv("DB_USER", "postgres"), getEnv("DB_PASSWORD", "postgres")),
		Host:   fmt.Sprintf("%s:%s", getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432")),
		Path:   "/" + getEnv("DB_NAME", "pt_elections"),
	}
	return u.String()
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur < 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.New(key + " inválido")
	}
	return b, nil
}
