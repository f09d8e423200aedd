package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/voxrag/voxrag/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrSessionContention):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// clientErrorMessage hides upstream detail from responses. What the
// model or a backing service said ends up in the log, not in the body.
func clientErrorMessage(status int, err error) string {
	switch {
	case domain.IsKind(err, domain.ErrGenerationFailed):
		slog.Error("answer generation failed", "error", err.Error())
		return "could not generate an answer, please try again"
	case domain.IsKind(err, domain.ErrTemporary):
		slog.Warn("dependency unavailable", "error", err.Error())
		return "temporarily unavailable, try again shortly"
	case status >= http.StatusInternalServerError:
		slog.Error("request failed", "status", status, "error", err.Error())
		return "internal error"
	default:
		return err.Error()
	}
}
