package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	LogLevel      string
	RulesPath     string
	ModelDir      string
	CacheTTLSecs  int
	APIToken      string
}

func Load() Config {
	return Config{
		Port:          envInt("FORESIGHT_PORT", 8760),
		NatsURL:       envStr("NATS_URL", "nats://nats:4222"),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		RedisAddr:     envStr("REDIS_ADDR", ""),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		RulesPath:     envStr("FORESIGHT_RULES", ""),
		ModelDir:      envStr("FORESIGHT_MODEL_DIR", "models"),
		CacheTTLSecs:  envInt("FORESIGHT_CACHE_TTL", 300),
		APIToken:      envStr("FORESIGHT_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
