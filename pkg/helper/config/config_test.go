package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ipgrv/git-remote-ipgrv/pkg/ipfs"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != ipfs.DefaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, ipfs.DefaultAPIURL)
	}
	if cfg.Timeout() != 60*time.Second {
		t.Fatalf("Timeout = %v, want 60s", cfg.Timeout())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "api_url = \"http://10.0.0.2:5001\"\ntimeout_seconds = 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "http://10.0.0.2:5001" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout() != 5*time.Second {
		t.Fatalf("Timeout = %v, want 5s", cfg.Timeout())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = [not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = \"http://10.0.0.2:5001\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IPFS_API_URL", "http://10.0.0.3:5001")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "http://10.0.0.3:5001" {
		t.Fatalf("APIURL = %q, want env override", cfg.APIURL)
	}
}
