package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_PLAYERS", "4")
	t.Setenv("REQUIRE_AUTH", "true")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if config.Port != "9090" || config.MaxPlayers != 4 || !config.RequireAuth {
		t.Fatalf("config = %+v", config)
	}
	if config.DBSSLMode != "disable" || config.ResultRetentionDays != 30 {
		t.Fatalf("defaults lost: %+v", config)
	}
}

func TestLoadConfigFile(t *testing.T) {
	for _, key := range []string{"PORT", "REDIS_ADDR", "MAX_PLAYERS"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"port":"7000","redis_addr":"cache:6379","max_players":3}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.Port != "7000" || config.RedisAddr != "cache:6379" || config.MaxPlayers != 3 {
		t.Fatalf("config = %+v", config)
	}
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("MAX_PLAYERS", "many")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for non-numeric MAX_PLAYERS")
	}
}
