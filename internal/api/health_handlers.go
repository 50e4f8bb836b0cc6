package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

// errNotConfigured marks a component the server was built without.
var errNotConfigured = errors.New("not configured")

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Version    string                     `json:"version,omitempty" doc:"Server version"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// probe checks one component. A nil error with an empty message is plain
// healthy; errNotConfigured degrades; any other error is unhealthy.
type probe struct {
	name  string
	check func(ctx context.Context) (string, error)
}

func (s *Server) probes() []probe {
	return []probe{
		{"database", s.probeDatabase},
		{"search", s.probeSearch},
		{"sse", s.probeSSE},
		{"actions", s.probeActions},
	}
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{Body: HealthResponse{
		Status:     healthHealthy,
		Version:    s.opts.Version,
		Components: make(map[string]ComponentHealth),
	}}

	for _, p := range s.probes() {
		start := time.Now()
		msg, err := p.check(ctx)
		c := ComponentHealth{Status: healthHealthy, Latency: time.Since(start).String(), Message: msg}
		switch {
		case errors.Is(err, errNotConfigured):
			c = ComponentHealth{Status: healthDegraded, Message: p.name + " " + err.Error()}
		case err != nil:
			c.Status = healthUnhealthy
			c.Message = err.Error()
		}
		out.Body.Components[p.name] = c
		out.Body.Status = worse(out.Body.Status, c.Status)
	}
	return out, nil
}

func worse(a, b string) string {
	rank := map[string]int{healthHealthy: 0, healthDegraded: 1, healthUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func (s *Server) probeDatabase(context.Context) (string, error) {
	if s.db == nil {
		return "", errNotConfigured
	}
	if err := s.db.Ping(); err != nil {
		return "", errors.New("database ping failed")
	}
	return "", nil
}

// probeSearch treats an empty index as healthy: a fresh catalog has nothing
// to index.
func (s *Server) probeSearch(context.Context) (string, error) {
	if s.services == nil || s.services.Search == nil {
		return "", errNotConfigured
	}
	n, err := s.services.Search.DocumentCount()
	if err != nil {
		return "", errors.New("search index unreachable")
	}
	return strconv.FormatUint(n, 10) + " documents", nil
}

func (s *Server) probeSSE(context.Context) (string, error) {
	if s.sseManager == nil {
		return "", errNotConfigured
	}
	switch n := s.sseManager.ClientCount(); n {
	case 0:
		return "no connected clients", nil
	case 1:
		return "1 connected client", nil
	default:
		return strconv.Itoa(n) + " connected clients", nil
	}
}

// probeActions degrades when no feature module registered an ajax action,
// which happens when their dependencies were missing at startup.
func (s *Server) probeActions(context.Context) (string, error) {
	names := s.actions.Names()
	if len(names) == 0 {
		return "", errors.New("no ajax actions registered")
	}
	return strings.Join(names, ", "), nil
}
