package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config собирается из переменных окружения (.env поддерживается)
type Config struct {
	BotToken          string
	Port              int
	OrdersDir         string
	RedisAddr         string // optional; file journal is used when empty
	Currency          string
	OrderHistoryLimit int
	MinAddressLen     int
}

// Load reads .env (if present) and the environment. BOT_TOKEN is the only
// required setting.
func Load() (Config, error) {
	// a missing .env is fine, real deployments set env vars directly
	_ = godotenv.Load()

	cfg := Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		Port:              envInt("PORT", 10000),
		OrdersDir:         envStr("ORDERS_DIR", "orders"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		Currency:          envStr("CURRENCY", "₹"),
		OrderHistoryLimit: envInt("ORDER_HISTORY_LIMIT", 5),
		MinAddressLen:     envInt("MIN_ADDRESS_LEN", 10),
	}
	if cfg.BotToken == "" {
		return Config{}, errors.New("BOT_TOKEN is required")
	}
	return cfg, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
