package security

import (
	"net"

	"github.com/valyala/fasthttp"

	"worldmonitor/pkg/logger"
)

// GuardFastHTTP applies the same CORS, loopback and rate-limit rules on the
// fasthttp transport. Both engines enforce one policy; a surface served
// through fasthttp is never more permissive than the net/http one.
func GuardFastHTTP(cfg SecConfig) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	limiters := &limiterPool{cfg: cfg}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			logger.Debug("incoming_request",
				"method", string(ctx.Method()),
				"path", string(ctx.Path()),
				"remote", ctx.RemoteAddr().String(),
			)

			origin := string(ctx.Request.Header.Peek("Origin"))
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
				ctx.Response.Header.Set("Vary", "Origin")
				ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,PATCH,OPTIONS")
				ctx.Response.Header.Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				ctx.Response.Header.Set("Access-Control-Max-Age", "600")
			}
			if string(ctx.Method()) == fasthttp.MethodOptions {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}

			ip := remoteIP(ctx)
			if cfg.LoopbackOnly && !loopback(ip) {
				logger.Warn("request_blocked", "reason", "not_loopback", "ip", ip, "path", string(ctx.Path()))
				denyFastHTTP(ctx, fasthttp.StatusForbidden, "forbidden")
				return
			}

			if cfg.RateLimit && !limiters.Allow(ip) {
				logger.Warn("request_blocked", "reason", "rate_limited", "ip", ip, "path", string(ctx.Path()))
				denyFastHTTP(ctx, fasthttp.StatusTooManyRequests, "too many requests")
				return
			}

			next(ctx)
		}
	}
}

func remoteIP(ctx *fasthttp.RequestCtx) string {
	addr := ctx.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func denyFastHTTP(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(`{"error":"` + msg + `"}`)
}
