package profile

import "github.com/matheus3301/crmchat/internal/config"

// Resolve returns the effective profile name.
// Priority: flag value > config default_profile > "main".
func Resolve(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return "main"
}

// Settings loads the config file (if any) and resolves the named profile.
func Settings(name string) (*config.Settings, error) {
	cfg, err := config.Load(ConfigPath())
	if err != nil {
		cfg = nil
	}
	return config.Resolve(cfg, name, EnvPath(name))
}
