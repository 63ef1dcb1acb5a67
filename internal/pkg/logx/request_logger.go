/*
Package logx wraps zerolog and owns the process-wide logger configuration.

This file contains the HTTP middleware that logs the request lifecycle
(method, URI, status, latency) with a per-request logger injected into the
context. Remote addresses are anonymized before logging.
*/
package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// anonymizeIP masks the host part of an address for log output.
// IPv4 addresses lose the last octet, IPv6 addresses keep only the first
// eight bytes. Unparseable input becomes "unknown_ip".
func anonymizeIP(ipStr string) string {
	host, _, err := net.SplitHostPort(ipStr)
	if err == nil {
		ipStr = host
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return "127.0.0.1"
	}

	if v4 := ip.To4(); v4 != nil {
		return v4[:3].String() + ".0"
	}

	if v6 := ip.To16(); v6 != nil {
		return v6[:8].String() + "::"
	}

	return ipStr
}

// RequestLogger returns middleware that logs every completed HTTP request.
// A logger carrying the request id and anonymized client address is placed
// in the request context for downstream handlers.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := Logger()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("component", "http").
				Str("request_id", requestID).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()

			logEvent := logger.Info()
			if status >= 500 {
				logEvent = logger.Error()
			} else if status >= 400 {
				logEvent = logger.Warn()
			}

			logEvent.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}
