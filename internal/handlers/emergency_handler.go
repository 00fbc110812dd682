package handlers

import (
	"net/http"
	"strconv"

	"healthmate/internal/models"
	"healthmate/internal/services"
	"healthmate/internal/utils"
	"healthmate/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyHandler struct {
	emergencyService  services.EmergencyService
	assessmentService services.AssessmentService
}

func NewEmergencyHandler(emergencyService services.EmergencyService, assessmentService services.AssessmentService) *EmergencyHandler {
	return &EmergencyHandler{
		emergencyService:  emergencyService,
		assessmentService: assessmentService,
	}
}

// InitiateSOS creates an emergency event from the caller's current location
func (h *EmergencyHandler) InitiateSOS(c *gin.Context) {
	var request models.SOSRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateSOSRequest(&request); errs != nil {
		if _, missing := errs["location"]; missing {
			respondServiceError(c, services.ErrLocationUnavailable)
			return
		}
		utils.ValidationErrorResponse(c, errs)
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	emergency, created, err := h.emergencyService.InitiateSOS(c.Request.Context(), userID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !created {
		utils.SuccessResponse(c, "An active emergency already exists for this user", emergency)
		return
	}

	utils.CreatedResponse(c, "SOS initiated", emergency)
}

// GetEmergency retrieves a single emergency event
func (h *EmergencyHandler) GetEmergency(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	emergency, err := h.emergencyService.GetEmergency(c.Request.Context(), emergencyID)
	if err != nil {
		respondServiceError(c, services.ErrEmergencyNotFound)
		return
	}

	utils.SuccessResponse(c, "Emergency retrieved", emergency)
}

// CancelSOS cancels the caller's own emergency while it is still unclaimed
func (h *EmergencyHandler) CancelSOS(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&request)
	if request.Reason == "" {
		request.Reason = "cancelled by user"
	}

	if err := h.emergencyService.CancelSOS(c.Request.Context(), emergencyID, userID, request.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency cancelled", nil)
}

// GetHistory lists the caller's past and present emergencies
func (h *EmergencyHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	emergencies, total, err := h.emergencyService.GetHistory(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}

	response := map[string]interface{}{
		"emergencies": emergencies,
	}

	utils.SuccessResponseWithMeta(c, "Emergency history retrieved", response, meta)
}

// GetETA reports distance and a coarse arrival estimate for display. The
// vehicle position comes from the query string if given, otherwise from the
// last en-route position on the record.
func (h *EmergencyHandler) GetETA(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var lat, lng *float64
	if latStr := c.Query("lat"); latStr != "" {
		if v, err := strconv.ParseFloat(latStr, 64); err == nil {
			lat = &v
		}
	}
	if lngStr := c.Query("lng"); lngStr != "" {
		if v, err := strconv.ParseFloat(lngStr, 64); err == nil {
			lng = &v
		}
	}

	eta, err := h.emergencyService.EstimateArrival(c.Request.Context(), emergencyID, lat, lng)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "ETA estimated", eta)
}

// AssessSymptoms relays a symptom description to the AI gateway
func (h *EmergencyHandler) AssessSymptoms(c *gin.Context) {
	var request struct {
		Symptoms string `json:"symptoms" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	assessment, err := h.assessmentService.AssessSymptoms(c.Request.Context(), request.Symptoms)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "ASSESSMENT_FAILED", "Symptom assessment unavailable: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Symptoms assessed", map[string]interface{}{
		"assessment": assessment,
	})
}

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return primitive.NilObjectID, false
	}

	return userObjectID, true
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}
