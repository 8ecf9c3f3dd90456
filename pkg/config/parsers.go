package config

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	Root   string
	Cache  string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged runtime configuration: flags win over
// env, env wins over the config file, defaults fill the rest.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	Source string // "flags", "env", or "config"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags
// struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", "127.0.0.1:46123", "HTTP listen address")
	rootPtr := flag.String("root", DefaultStaticRoot, "Static content root (SPA bundle)")
	cachePtr := flag.String("cache", DefaultCachePath, "Response cache path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, Root: *rootPtr, Cache: *cachePtr, Config: *cfgPtr, Set: setFlags}
}

// ApplyEnvOverrides applies environment overrides onto cfg and reports
// whether any were used. Both the WORLDMONITOR_* names and the LOCAL_API_*
// names the desktop shell passes to the sidecar are honored; LOCAL_API_*
// wins because the shell is the closest authority on its own deployment.
func ApplyEnvOverrides(cfg *Config) bool {
	envUsed := false

	if v := os.Getenv("WORLDMONITOR_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	} else {
		if host := os.Getenv("WORLDMONITOR_ADDRESS"); host != "" {
			envUsed = true
			cfg.Server.Address = host
		}
		if port := os.Getenv("WORLDMONITOR_PORT"); port != "" {
			envUsed = true
			if pi, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = pi
			}
		}
	}
	if v := os.Getenv("WORLDMONITOR_STATIC_ROOT"); v != "" {
		envUsed = true
		cfg.Static.Root = v
	}
	if v := os.Getenv("WORLDMONITOR_CACHE_PATH"); v != "" {
		envUsed = true
		cfg.Cache.Path = v
	}
	if v := os.Getenv("WORLDMONITOR_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("WORLDMONITOR_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("WORLDMONITOR_ENGINE"); v != "" {
		envUsed = true
		cfg.Server.Engine = strings.ToLower(strings.TrimSpace(v))
	}

	// sidecar contract with the desktop shell
	if v := os.Getenv("LOCAL_API_PORT"); v != "" {
		envUsed = true
		if pi, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Server.Port = pi
		}
	}
	if v := os.Getenv("LOCAL_API_RESOURCE_DIR"); v != "" {
		envUsed = true
		cfg.Static.Root = v
		cfg.API.HandlerRoot = filepath.Join(v, "api")
	}
	if v := os.Getenv("LOCAL_API_MODE"); v != "" {
		envUsed = true
		cfg.Mode = strings.TrimSpace(v)
	}

	return envUsed
}

// LoadEffective loads the config file (missing file is fine), applies env
// overrides and explicit flags, fills defaults, and records which source
// decided the listen address.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	source := "config"
	if err != nil {
		if !os.IsNotExist(err) {
			return EffectiveConfigResult{}, err
		}
		cfg = &Config{}
		source = "defaults"
	}

	if ApplyEnvOverrides(cfg) {
		source = "env"
	}

	if flags.Set["root"] {
		cfg.Static.Root = flags.Root
	}
	if flags.Set["cache"] {
		cfg.Cache.Path = flags.Cache
	}
	if flags.Set["addr"] {
		source = "flags"
		if h, p, err := net.SplitHostPort(flags.Addr); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = flags.Addr
		}
	}

	applyDefaults(cfg)
	return EffectiveConfigResult{Config: cfg, Addr: cfg.Addr(), Source: source}, nil
}

func parseList(v string) []string {
	if v == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
