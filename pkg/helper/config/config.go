// Package config reads optional helper settings from the ledger directory.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ipgrv/git-remote-ipgrv/pkg/ipfs"
)

// Config holds helper settings. All fields are optional; zero values fall
// back to defaults.
type Config struct {
	APIURL         string `toml:"api_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Default returns the built-in settings: local node API, 60s store timeout.
func Default() Config {
	return Config{
		APIURL:         ipfs.DefaultAPIURL,
		TimeoutSeconds: 60,
	}
}

// Load reads path if it exists and applies the IPFS_API_URL environment
// override. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if env := strings.TrimSpace(os.Getenv("IPFS_API_URL")); env != "" {
		cfg.APIURL = env
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = ipfs.DefaultAPIURL
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = Default().TimeoutSeconds
	}
	return cfg, nil
}

// Timeout returns the store submission timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
