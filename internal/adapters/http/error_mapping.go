package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrShopNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine readable code clients switch on. The more specific
// typed errors are checked before their kinds.
func errorCode(err error) string {
	var (
		validation *domain.ValidationError
		missing    *domain.MissingReasonError
		category   *domain.InvalidCategoryError
	)
	switch {
	case errors.As(err, &validation):
		return "validation_failed"
	case errors.As(err, &missing):
		return "missing_reason"
	case errors.As(err, &category):
		return "invalid_category"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return "unauthorized"
	case domain.IsKind(err, domain.ErrForbidden):
		return "forbidden"
	case domain.IsKind(err, domain.ErrShopNotFound):
		return "shop_not_found"
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return "document_not_found"
	case domain.IsKind(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporarily_unavailable"
	default:
		return "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	resp := errorResponse{
		Error: err.Error(),
		Code:  errorCode(err),
	}

	var (
		validation *domain.ValidationError
		missing    *domain.MissingReasonError
	)
	if errors.As(err, &validation) {
		resp.Reason = string(validation.Reason)
	}
	if errors.As(err, &missing) {
		resp.Field = missing.Field
	}

	if status == http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}
