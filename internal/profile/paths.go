package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.crmchat, or $CRMCHAT_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("CRMCHAT_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".crmchat")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// SocketPath returns the UDS socket path for a profile.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "daemon.sock")
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DBPath returns the local archive database path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "chat.db")
}

// EnvPath returns the optional per-profile .env file.
func EnvPath(name string) string {
	return filepath.Join(Dir(name), ".env")
}

// DownloadDir returns where fetched attachments are saved.
func DownloadDir(name string) string {
	return filepath.Join(Dir(name), "downloads")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "chatd.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name), DownloadDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
