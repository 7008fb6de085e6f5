package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := &Config{DefaultProfile: "work"}
	cfg.SetProfile("work", Profile{SocketURL: "ws://chat.local/ws", UserID: "u1", ChunkSize: 4096})
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	p := loaded.Profile("work")
	if p.SocketURL != "ws://chat.local/ws" || p.UserID != "u1" || p.ChunkSize != 4096 {
		t.Errorf("profile = %+v", p)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestProfileOnNilConfig(t *testing.T) {
	var cfg *Config
	if p := cfg.Profile("main"); p != (Profile{}) {
		t.Errorf("Profile() on nil config = %+v, want zero", p)
	}
}
