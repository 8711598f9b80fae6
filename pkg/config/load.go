package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// readConfig loads YAML + environment overrides via cleanenv.
// A missing config file is not an error: env-only deployments (containers)
// are supported, so we fall back to environment variables and defaults.
func readConfig(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return cleanenv.ReadEnv(cfg)
	}
	return cleanenv.ReadConfig(path, cfg)
}
