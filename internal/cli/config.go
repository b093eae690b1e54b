package cli

import (
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	SnapshotDir string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("TOWNSQUARE_SERVER", "http://localhost:8080"),
		SnapshotDir: getEnvOrDefault("TOWNSQUARE_SNAPSHOT_DIR", defaultSnapshotDir()),
		Verbose:     false,
	}
}

func defaultSnapshotDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".townsquare/sessions"
	}
	return filepath.Join(home, ".townsquare", "sessions")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
