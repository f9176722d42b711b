package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven configuration for both binaries.
type Config struct {
	Addr        string
	MockAPIAddr string

	APIBaseURL string
	APITimeout time.Duration

	// KVBackend selects the local key-value store: memory, postgres or redis.
	KVBackend   string
	DatabaseURL string
	RedisURL    string

	PickupLeadDays int
	DeliveryFee    int64
	TaxPercent     int64

	LogLevel  string
	JWTSecret string
}

// Load reads configuration from environment variables. Callers are expected to
// run godotenv.Load first so a local .env file is honoured.
func Load() Config {
	return Config{
		Addr:           getenv("PRASAD_APP_ADDR", ":8080"),
		MockAPIAddr:    getenv("PRASAD_MOCKAPI_ADDR", ":3000"),
		APIBaseURL:     getenv("PRASAD_API_BASE_URL", "http://localhost:3000/api/v2/mp"),
		APITimeout:     getduration("PRASAD_API_TIMEOUT", 10*time.Second),
		KVBackend:      getenv("PRASAD_KV_BACKEND", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		PickupLeadDays: int(getint("PRASAD_PICKUP_LEAD_DAYS", 3)),
		DeliveryFee:    getint("PRASAD_DELIVERY_FEE", 2000),
		TaxPercent:     getint("PRASAD_TAX_PERCENT", 18),
		LogLevel:       getenv("PRASAD_LOG_LEVEL", "info"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
