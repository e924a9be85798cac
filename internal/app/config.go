package app

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env       string
	HTTPAddr  string
	CORSAllow []string

	Store string // "redis" or "memory"

	RedisAddr string // host:port
	RedisDB   int

	RoomTTL       time.Duration // inactive rooms expire after this
	SweepInterval time.Duration // how often the expiry sweeper runs
}

func LoadConfig() Config {
	cfg := Config{
		Env:       getEnv("APP_ENV", "dev"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":3124"),
		Store:     getEnv("STORE", "redis"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
	}
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.RoomTTL = getEnvDur("ROOM_TTL", 24*time.Hour)
	cfg.SweepInterval = getEnvDur("SWEEP_INTERVAL", time.Hour)
	// CORS allowlist
	allow := getEnv("CORS_ALLOW", "http://localhost:3123,http://localhost:8080")
	cfg.CORSAllow = splitCSV(allow)
	log.Printf("config: %+v\n", cfg)
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var i int
		_, _ = fmt.Sscanf(v, "%d", &i)
		if i > 0 {
			return i
		}
	}
	return def
}

// getEnvDur parses a duration env var (e.g. "24h") with a fallback
func getEnvDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
