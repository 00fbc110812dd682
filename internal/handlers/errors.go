package handlers

import (
	"errors"
	"net/http"

	"healthmate/internal/services"
	"healthmate/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError translates domain errors into API responses. Anything
// unrecognized is treated as a transient store failure: the client gets a
// retry affordance, never a corrupted record.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLocationUnavailable):
		utils.ErrorResponse(c, http.StatusBadRequest, "LOCATION_UNAVAILABLE", "A usable location is required")
	case errors.Is(err, services.ErrLostRace):
		utils.ConflictResponse(c, "ALREADY_TAKEN", "This emergency was already accepted by another partner")
	case errors.Is(err, services.ErrNotAssigned):
		utils.ErrorResponse(c, http.StatusForbidden, "NOT_ASSIGNED", "This emergency is assigned to another partner")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ConflictResponse(c, "INVALID_TRANSITION", "The emergency is not in a state that allows this action")
	case errors.Is(err, services.ErrEmergencyNotFound):
		utils.NotFoundResponse(c, "Emergency")
	case errors.Is(err, services.ErrPartnerNotFound):
		utils.NotFoundResponse(c, "Partner profile")
	default:
		utils.ServiceUnavailableResponse(c, "Temporary failure, please retry")
	}
}
