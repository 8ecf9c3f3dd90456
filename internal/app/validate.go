package app

import (
	"fmt"
	"strings"

	"worldmonitor/pkg/config"
)

// validateConfig checks the effective config for conditions that would
// only surface later as confusing runtime failures.
func validateConfig(eff config.EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		if cfg.Server.Port != 0 {
			return fmt.Errorf("invalid port %d", cfg.Server.Port)
		}
	}
	switch cfg.Server.Engine {
	case "", "nethttp", "fasthttp":
	default:
		return fmt.Errorf("unknown server engine %q", cfg.Server.Engine)
	}
	if !strings.HasPrefix(cfg.API.Prefix, "/") {
		return fmt.Errorf("api prefix must start with '/': %q", cfg.API.Prefix)
	}
	if cfg.API.MaxBodySize < 0 {
		return fmt.Errorf("negative max body size")
	}
	if (cfg.Server.TLS.CertFile == "") != (cfg.Server.TLS.KeyFile == "") {
		return fmt.Errorf("tls requires both cert_file and key_file")
	}
	return nil
}
