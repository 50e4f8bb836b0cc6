package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
)

// codeRateLimited is the only API code with no domain counterpart.
const codeRateLimited = "RATE_LIMITED"

// APIError is the JSON error body of every REST endpoint. It implements
// huma.StatusError.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.status }

// ContentType implements huma.ContentTypeFilter.
func (e *APIError) ContentType(string) string { return "application/json" }

// fromDomain converts a domain error. Internal errors keep only their
// message; the cause is for logs.
func fromDomain(de *domainerrors.Error) *APIError {
	e := &APIError{status: de.HTTPStatus(), Code: string(de.Code), Message: de.Message}
	if de.Code != domainerrors.CodeInternal {
		e.Details = de.Details
	}
	return e
}

// statusCodes names the API code for statuses huma produces on its own.
var statusCodes = map[int]string{
	http.StatusBadRequest:      string(domainerrors.CodeValidation),
	http.StatusUnauthorized:    string(domainerrors.CodeUnauthorized),
	http.StatusForbidden:       string(domainerrors.CodeForbidden),
	http.StatusNotFound:        string(domainerrors.CodeNotFound),
	http.StatusConflict:        string(domainerrors.CodeConflict),
	http.StatusTooManyRequests: codeRateLimited,
}

// RegisterErrorHandler makes huma build APIError values, mapping domain
// errors by code. huma's own 422 input validation is folded into 400.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var de *domainerrors.Error
			if errors.As(err, &de) {
				return fromDomain(de)
			}
		}

		var details any
		if status == http.StatusUnprocessableEntity && len(errs) > 0 {
			status = http.StatusBadRequest
			msgs := make([]string, 0, len(errs))
			for _, err := range errs {
				msgs = append(msgs, err.Error())
			}
			details = msgs
		}

		code, ok := statusCodes[status]
		if !ok {
			code = string(domainerrors.CodeInternal)
		}
		return &APIError{status: status, Code: code, Message: message, Details: details}
	}
}
