package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/gameshelf/gameshelf-server/internal/action"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/http/response"
)

// maxAjaxFormBytes bounds the form-encoded ajax body.
const maxAjaxFormBytes = 64 << 10

// handleAjax dispatches POST /ajax to a registered action. Checks run in a
// fixed order: authentication, anti-forgery token, admin role, handler.
// Every failure answers 200 with the same generic message; the real cause
// is logged and counted.
func (s *Server) handleAjax(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", CacheNoStore)

	r.Body = http.MaxBytesReader(w, r.Body, maxAjaxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.ajaxFailed(w, r, "", domainerrors.Validation("malformed form body").WithCause(err))
		return
	}
	name := r.PostForm.Get("action")

	claims := claimsFrom(r.Context())
	if claims == nil {
		s.ajaxFailed(w, r, "", domainerrors.Unauthorized("login required"))
		return
	}

	a, ok := s.actions.Lookup(name)
	if !ok {
		// Unregistered names stay out of metric labels.
		s.ajaxFailed(w, r, "unknown", domainerrors.Validationf("unknown action %q", name))
		return
	}

	if !s.services.Nonce.Verify(r.PostForm.Get("security"), a.Nonce, claims.UserID, claims.SessionID) {
		s.ajaxFailed(w, r, name, domainerrors.Validation("invalid security token"))
		return
	}

	if a.RequireAdmin && !claims.IsAdmin {
		s.ajaxFailed(w, r, name, domainerrors.Forbidden("admin access required"))
		return
	}

	res, err := a.Handle(r.Context(), &action.Request{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		IsAdmin:   claims.IsAdmin,
		Form:      r.PostForm,
	})
	if err != nil {
		s.ajaxFailed(w, r, name, err)
		return
	}

	response.Action(w, res.Status, res.Count, s.logger)
}

func (s *Server) ajaxFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	code := domainerrors.CodeOf(err)
	kind := code.Kind()
	s.metrics.IncAjaxFailure(name, string(kind))

	log := s.logger.Info
	if kind == domainerrors.KindStorage {
		log = s.logger.Error
	}
	log("ajax action failed",
		"action", name,
		"kind", kind,
		"code", code,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)

	response.ActionFailed(w, ajaxFailureMessage, s.logger)
}
