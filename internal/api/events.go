package api

import (
	"net/http"

	"github.com/gameshelf/gameshelf-server/internal/http/response"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// handleEvents streams server-sent events for the caller's session. Toggle
// results reach only the session that made them.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		// EventSource cannot send headers, so browsers pass the token in the query.
		if token := r.URL.Query().Get("access_token"); token != "" && s.services != nil {
			if c, err := s.services.Auth.VerifyAccessToken(r.Context(), token); err == nil {
				claims = c
			}
		}
	}
	if claims == nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}
	if s.sseHandler == nil {
		response.Error(w, http.StatusServiceUnavailable, "Event stream unavailable", s.logger)
		return
	}

	s.sseHandler.Stream(w, r, sse.Subscriber{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		IsAdmin:   claims.IsAdmin,
	})
}
