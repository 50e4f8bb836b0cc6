package api

import (
	"context"
	"net/http"

	"github.com/gameshelf/gameshelf-server/internal/service"
)

// remoteAddrKey carries the client address for huma handlers, which do not
// see the *http.Request.
const remoteAddrKey ctxKey = "remote_addr"

// remoteAddrMiddleware stores the (RealIP-adjusted) remote address in context.
func remoteAddrMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), remoteAddrKey, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientInfo builds session metadata from the request context.
func clientInfo(ctx context.Context, userAgent string) service.ClientInfo {
	addr, _ := ctx.Value(remoteAddrKey).(string)
	return service.ClientInfo{
		IPAddress: clientIP(addr),
		UserAgent: userAgent,
	}
}
