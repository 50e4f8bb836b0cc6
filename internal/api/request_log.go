package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
)

// redactedParams are query parameters that carry credentials.
var redactedParams = []string{"access_token"}

// requestLogger is chi's request logger writing through out, with
// credential query parameters masked in the logged URI.
func requestLogger(out middleware.LoggerInterface) func(http.Handler) http.Handler {
	return middleware.RequestLogger(redactingFormatter{
		next: &middleware.DefaultLogFormatter{Logger: out, NoColor: true},
	})
}

func slogRequestLog(logger *slog.Logger) middleware.LoggerInterface {
	return slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
}

type redactingFormatter struct {
	next middleware.LogFormatter
}

func (f redactingFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	uri, changed := redactURI(r.RequestURI)
	if !changed {
		return f.next.NewLogEntry(r)
	}
	masked := r.WithContext(r.Context())
	masked.RequestURI = uri
	return f.next.NewLogEntry(masked)
}

func redactURI(uri string) (string, bool) {
	u, err := url.ParseRequestURI(uri)
	if err != nil || u.RawQuery == "" {
		return uri, false
	}
	q := u.Query()
	changed := false
	for _, p := range redactedParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return uri, false
	}
	u.RawQuery = q.Encode()
	return u.RequestURI(), true
}
