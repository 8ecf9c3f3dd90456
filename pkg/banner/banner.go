package banner

import (
	"fmt"

	"worldmonitor/pkg/config"
)

const banner = `
██╗    ██╗ ██████╗ ██████╗ ██╗     ██████╗     ███╗   ███╗ ██████╗ ███╗   ██╗
██║    ██║██╔═══██╗██╔══██╗██║     ██╔══██╗    ████╗ ████║██╔═══██╗████╗  ██║
██║ █╗ ██║██║   ██║██████╔╝██║     ██║  ██║    ██╔████╔██║██║   ██║██╔██╗ ██║
██║███╗██║██║   ██║██╔══██╗██║     ██║  ██║    ██║╚██╔╝██║██║   ██║██║╚██╗██║
╚███╔███╔╝╚██████╔╝██║  ██║███████╗██████╔╝    ██║ ╚═╝ ██║╚██████╔╝██║ ╚████║
 ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═════╝     ╚═╝     ╚═╝ ╚═════╝ ╚═╝  ╚═══╝
`

// Print writes the startup banner using the effective config.
func Print(eff config.EffectiveConfigResult, version string, routeCount int) {
	cfg := eff.Config

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", eff.Addr)
	fmt.Printf("Mode:     %s\n", cfg.Mode)
	fmt.Printf("Static:   %s\n", cfg.Static.Root)
	fmt.Printf("Units:    %s (%d routes)\n", cfg.API.HandlerRoot, routeCount)
	fmt.Printf("Cache:    %s\n", cfg.Cache.Path)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", eff.Source)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Printf("GET  %s/status - server status\n", cfg.API.Prefix)
	fmt.Printf("ANY  %s/...    - handler units discovered from the unit tree\n", cfg.API.Prefix)
	fmt.Println("GET  /healthz  - liveness probe")
	fmt.Println("GET  /metrics  - Prometheus metrics")
	fmt.Println("GET  /*        - SPA bundle (unknown paths serve the app shell)")

	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("\n- TLS: configured")
	}
	if cfg.Security.LoopbackOnly {
		fmt.Println("- Access: loopback only")
	}
	if cfg.Retention.Enabled {
		fmt.Printf("- Cache sweep: enabled (cron=%s)\n", cfg.Retention.Cron)
	}

	fmt.Println("\n== Logs =======================================================")
}
