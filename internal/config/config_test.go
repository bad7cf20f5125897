package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.DBPath != "./data/album.db" {
		t.Errorf("unexpected default DB path %s", cfg.DBPath)
	}
	if cfg.TokenDuration != 0 {
		t.Errorf("expected no token expiry by default, got %v", cfg.TokenDuration)
	}
}

func TestLoadServer_EnvVars(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_DURATION", "24h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.TokenDuration != 24*time.Hour {
		t.Errorf("expected 24h, got %v", cfg.TokenDuration)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Errorf("unexpected redis config: %s db=%d", cfg.RedisAddr, cfg.RedisDB)
	}
}

func TestLoadServer_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadServer(); err == nil {
		t.Error("expected error without JWT_SECRET")
	}
}

func TestLoadServer_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "eighty")
	t.Setenv("TOKEN_DURATION", "forever")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Port != 8080 || cfg.TokenDuration != 0 {
		t.Errorf("invalid values should fall back: port=%d duration=%v", cfg.Port, cfg.TokenDuration)
	}
}

func TestLoadClient_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STORE_URL=http://album.local:9000\nGROUP_PASSCODE=4321\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	// Registered so t.Setenv restores the variables godotenv sets.
	t.Setenv("STORE_URL", "")
	t.Setenv("GROUP_PASSCODE", "")
	os.Unsetenv("STORE_URL")
	os.Unsetenv("GROUP_PASSCODE")
	t.Setenv("VERIFICATION_CODE", "")

	cfg := LoadClient()
	if cfg.StoreURL != "http://album.local:9000" {
		t.Errorf("expected STORE_URL from .env, got %s", cfg.StoreURL)
	}
	if cfg.GroupPasscode != "4321" {
		t.Errorf("expected passcode from .env, got %s", cfg.GroupPasscode)
	}
	if cfg.VerificationCode != "1234" {
		t.Errorf("expected default verification code, got %s", cfg.VerificationCode)
	}
}
