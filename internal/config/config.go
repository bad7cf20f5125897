// Package config loads server and client configuration from the
// environment. A .env file in the working directory is read first when
// present; variables already set in the environment win.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server holds the store server configuration.
type Server struct {
	Port          int
	DBPath        string
	JWTSecret     string
	TokenDuration time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LogLevel      string
}

// Client holds the configuration of album clients (albumctl).
type Client struct {
	StoreURL         string
	StoreToken       string
	GroupPasscode    string
	VerificationCode string
	LogLevel         string
}

// LoadServer builds Server from the environment.
func LoadServer() (*Server, error) {
	loadDotEnv()

	cfg := &Server{
		Port:          getEnvInt("PORT", 8080),
		DBPath:        getEnv("DB_PATH", "./data/album.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 0),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET required")
	}
	return cfg, nil
}

// LoadClient builds Client from the environment.
func LoadClient() *Client {
	loadDotEnv()

	return &Client{
		StoreURL:         getEnv("STORE_URL", "http://localhost:8080"),
		StoreToken:       os.Getenv("STORE_TOKEN"),
		GroupPasscode:    getEnv("GROUP_PASSCODE", "1234"),
		VerificationCode: getEnv("VERIFICATION_CODE", "1234"),
		LogLevel:         getEnv("LOG_LEVEL", "warn"),
	}
}

func loadDotEnv() {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
