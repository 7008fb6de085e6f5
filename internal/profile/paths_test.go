package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/crmchat/internal/config"
)

func TestPathsUnderHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CRMCHAT_HOME", base)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"dir", Dir("main"), filepath.Join(base, "profiles", "main")},
		{"socket", SocketPath("main"), filepath.Join(base, "profiles", "main", "daemon.sock")},
		{"lock", LockPath("main"), filepath.Join(base, "profiles", "main", "LOCK")},
		{"db", DBPath("main"), filepath.Join(base, "profiles", "main", "chat.db")},
		{"log", LogPath("main"), filepath.Join(base, "profiles", "main", "logs", "chatd.log")},
		{"config", ConfigPath(), filepath.Join(base, "config.toml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	t.Setenv("CRMCHAT_HOME", t.TempDir())

	if err := EnsureDir("test"); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{Dir("test"), LogDir("test"), DownloadDir("test")} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("stat %s: %v", d, err)
		}
		if perm := info.Mode().Perm(); perm != 0700 {
			t.Errorf("%s permission = %o, want 0700", d, perm)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("CRMCHAT_HOME", t.TempDir())

	if got := Resolve(""); got != "main" {
		t.Errorf("Resolve(\"\") without config = %q, want main", got)
	}
	if got := Resolve("sales"); got != "sales" {
		t.Errorf("Resolve(sales) = %q", got)
	}

	if err := config.Save(ConfigPath(), &config.Config{DefaultProfile: "support"}); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "support" {
		t.Errorf("Resolve(\"\") = %q, want support", got)
	}
	if got := Resolve("sales"); got != "sales" {
		t.Errorf("flag should win, got %q", got)
	}
}
