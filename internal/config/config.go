package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration shared by the daemon and the agent.
type Config struct {
	Daemon struct {
		// Addr is the listen address for the bridge server.
		Addr string `yaml:"addr"`
		// StorePath is the SQLite database holding persisted user configuration.
		StorePath string `yaml:"store_path"`
	} `yaml:"daemon"`

	Agent struct {
		// BridgeURL is the websocket endpoint of the daemon bridge.
		BridgeURL string `yaml:"bridge_url"`
		// Page is the HTML snapshot of the feed page the agent operates on.
		Page string `yaml:"page"`
		// MutationsDir is watched for HTML fragments that are appended to the
		// feed container as structural mutations.
		MutationsDir string `yaml:"mutations_dir"`
		// TargetsPath optionally overrides the built-in selector registry.
		TargetsPath string `yaml:"targets_path"`
	} `yaml:"agent"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	dataDir := defaultDataDir()
	c.Daemon.Addr = "127.0.0.1:27610"
	c.Daemon.StorePath = filepath.Join(dataDir, "articulate.db")
	c.Agent.BridgeURL = "ws://127.0.0.1:27610/bridge"
	c.Agent.MutationsDir = filepath.Join(dataDir, "mutations")
	return c
}

// Load reads the YAML config at path, falling back to defaults for any field
// left unset. A missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, err
	}
	return loadFromBytes(data, c)
}

// loadFromBytes parses YAML with environment variable expansion.
func loadFromBytes(data []byte, c Config) (Config, error) {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, err
	}
	return c, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".articulate"
	}
	return filepath.Join(home, ".articulate")
}
