package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Telegram struct {
		Token   string
		Channel string
	}
	Drivers  []int64 // authorized driver ids, immutable after load
	MaxSeats int
	Ops      struct {
		Port      int
		JWTSecret string
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
}

// RabbitMQEnabled reports whether an AMQP event sink is configured.
// The broker is optional; the bot runs fully in-process without it.
func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQ.Host != ""
}

func LoadConfig(filename string) (*Config, error) {
	err := loadEnvFile(filename)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	cfg.Telegram.Token = getEnv("TELEGRAM_TOKEN", "")
	cfg.Telegram.Channel = getEnv("CHANNEL_ID", "@titanshuttle")
	cfg.Drivers = getEnvAsInt64Slice("ALLOWED_DRIVERS", []int64{1262116449})
	cfg.MaxSeats = getEnvAsInt("MAX_SEATS", 5)
	cfg.Ops.Port = getEnvAsInt("OPS_PORT", 3100)
	cfg.Ops.JWTSecret = getEnv("OPS_JWT_SECRET", "")
	cfg.RabbitMQ.Host = getEnv("RABBITMQ_HOST", "")
	cfg.RabbitMQ.Port = getEnvAsInt("RABBITMQ_PORT", 5672)
	cfg.RabbitMQ.User = getEnv("RABBITMQ_USER", "guest")
	cfg.RabbitMQ.Password = getEnv("RABBITMQ_PASS", "guest")

	if cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.MaxSeats < 1 {
		return nil, fmt.Errorf("MAX_SEATS must be at least 1, got %d", cfg.MaxSeats)
	}

	return cfg, nil
}

func loadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		// A missing env file is fine; configuration may come from the
		// process environment alone.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("could not set env var %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading env file: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsInt64Slice parses a comma-separated list of int64 ids.
func getEnvAsInt64Slice(key string, fallback []int64) []int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}

	var out []int64
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return fallback
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
