package handlers

import (
	"errors"
	"net/http"

	"bookitgy/services/api"
	"bookitgy/services/auth"
	"bookitgy/services/availability"
	"bookitgy/services/billing"
	"bookitgy/services/booking"
	"bookitgy/services/favorites"
	"bookitgy/services/geo"
	"bookitgy/services/mutation"
	"bookitgy/services/provider"
	"bookitgy/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a client error to a console reply. fallback is shown when the API sent no
// usable detail.
func respondError(c *gin.Context, err error, fallback string) {
	var (
		apiErr   *api.Error
		precond  *billing.PreconditionError
		invalid  *provider.ValidationError
		notFound *booking.NotFoundError
	)

	switch {
	case errors.Is(err, api.ErrSessionExpired):
		utils.JSONErrorCode(c, http.StatusUnauthorized, api.Message(err, fallback), "", "SESSION_EXPIRED")
	case errors.Is(err, mutation.ErrInFlight):
		utils.JSONErrorCode(c, http.StatusConflict, err.Error(), "", "IN_FLIGHT")
	case errors.As(err, &precond):
		utils.JSONErrorCode(c, http.StatusUnprocessableEntity, precond.Message, precond.Field, "PRECONDITION")
	case errors.As(err, &invalid):
		utils.JSONErrorCode(c, http.StatusUnprocessableEntity, invalid.Error(), invalid.Field, "VALIDATION")
	case errors.As(err, &notFound):
		utils.JSONError(c, http.StatusNotFound, notFound.Error(), "")
	case errors.Is(err, booking.ErrAlreadyCancelled):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, booking.ErrNotConfirmed),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, availability.ErrDateUnavailable),
		errors.Is(err, availability.ErrSlotUnavailable),
		errors.Is(err, availability.ErrIncompleteSelection),
		errors.Is(err, geo.ErrInvalidRadius):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, booking.ErrProviderScope):
		utils.JSONError(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, favorites.ErrNoUser):
		utils.JSONErrorCode(c, http.StatusUnauthorized, err.Error(), "", "SIGNED_OUT")
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status >= 500 {
			status = http.StatusBadGateway
		}
		utils.JSONErrorCode(c, status, api.Message(err, fallback), "", apiErr.Code)
	case errors.Is(err, api.ErrUnexpectedShape):
		utils.JSONError(c, http.StatusBadGateway, fallback, err.Error())
	default:
		getLogger(c).Error(fallback, zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, fallback, err.Error())
	}
}

func bindError(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
}
