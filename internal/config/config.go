package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.crmchat/config.toml.
type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	Profiles       map[string]Profile `toml:"profiles"`
}

// Profile is the on-disk configuration of one CRM identity.
type Profile struct {
	SocketURL        string `toml:"socket_url"`
	APIBaseURL       string `toml:"api_base_url"`
	FileBaseURL      string `toml:"file_base_url"`
	UserID           string `toml:"user_id"`
	UserName         string `toml:"user_name"`
	Token            string `toml:"token"`
	ChunkSize        int    `toml:"chunk_size"`
	RefreshSchedule  string `toml:"refresh_schedule"`
	ReconnectInitial string `toml:"reconnect_initial"`
	ReconnectMax     string `toml:"reconnect_max"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Profile returns the named profile section, or a zero Profile.
func (c *Config) Profile(name string) Profile {
	if c == nil || c.Profiles == nil {
		return Profile{}
	}
	return c.Profiles[name]
}

// SetProfile stores p under name.
func (c *Config) SetProfile(name string, p Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	c.Profiles[name] = p
}
