package httpadapter

import (
	"errors"
	"net/http"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/usecase"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, usecase.ErrSuperseded):
		return http.StatusNoContent
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// leavesPage reports errors after which the current view can no longer be
// shown: the workspace was logged out or lacks the admin role.
func leavesPage(err error) bool {
	return domain.IsKind(err, domain.ErrUnauthorized) || domain.IsKind(err, domain.ErrForbidden)
}
