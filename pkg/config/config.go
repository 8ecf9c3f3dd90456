package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied after merging file, env and flags.
const (
	DefaultStaticRoot   = "./web"
	DefaultIndex        = "index.html"
	DefaultAssetsPrefix = "/assets/"
	DefaultAPIPrefix    = "/api"
	DefaultDataDir      = "data"
	DefaultCachePath    = "./.cache"
	DefaultMode         = "standalone"
)

// Load parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and the WORLDMONITOR_CONFIG environment variable when the flag was
// not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("WORLDMONITOR_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// applyDefaults fills unset fields with the canonical defaults.
func applyDefaults(cfg *Config) {
	if cfg.Static.Root == "" {
		cfg.Static.Root = DefaultStaticRoot
	}
	if cfg.Static.Index == "" {
		cfg.Static.Index = DefaultIndex
	}
	if cfg.Static.AssetsPrefix == "" {
		cfg.Static.AssetsPrefix = DefaultAssetsPrefix
	}
	if cfg.API.Prefix == "" {
		cfg.API.Prefix = DefaultAPIPrefix
	}
	if cfg.API.HandlerRoot == "" {
		cfg.API.HandlerRoot = cfg.Static.Root + "/api"
	}
	if cfg.API.DataDir == "" {
		cfg.API.DataDir = DefaultDataDir
	}
	if cfg.API.MaxBodySize == 0 {
		cfg.API.MaxBodySize = 4 << 20
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(10 * time.Minute)
	}
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}
}
