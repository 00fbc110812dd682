package handlers

import (
	"healthmate/internal/models"
	"healthmate/internal/services"
	"healthmate/internal/utils"
	"healthmate/internal/validators"

	"github.com/gin-gonic/gin"
)

type PartnerHandler struct {
	emergencyService services.EmergencyService
	partnerService   services.PartnerService
}

func NewPartnerHandler(emergencyService services.EmergencyService, partnerService services.PartnerService) *PartnerHandler {
	return &PartnerHandler{
		emergencyService: emergencyService,
		partnerService:   partnerService,
	}
}

// GetOpenEmergencies lists unclaimed emergencies, newest first, minus the
// caller's local dismissals
func (h *PartnerHandler) GetOpenEmergencies(c *gin.Context) {
	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	emergencies, err := h.emergencyService.GetOpenEmergencies(c.Request.Context(), partnerUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Open emergencies retrieved", map[string]interface{}{
		"emergencies": emergencies,
	})
}

// GetActiveCases lists the caller's accepted cases grouped by status
func (h *PartnerHandler) GetActiveCases(c *gin.Context) {
	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	cases, err := h.emergencyService.GetActiveCases(c.Request.Context(), partnerUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Active cases retrieved", cases)
}

// Accept attempts to claim an open emergency. Losing the race is a normal
// outcome and comes back as a conflict, not a server error.
func (h *PartnerHandler) Accept(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	emergency, err := h.emergencyService.Accept(c.Request.Context(), emergencyID, partnerUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency accepted", emergency)
}

// MarkEnRoute advances an accepted case, optionally recording the vehicle's
// current position
func (h *PartnerHandler) MarkEnRoute(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request models.TransitionRequest
	c.ShouldBindJSON(&request)

	if errs := validators.ValidateTransitionRequest(&request); errs != nil {
		// A bad position never blocks the transition; drop it instead
		request = models.TransitionRequest{}
	}

	emergency, err := h.emergencyService.MarkEnRoute(c.Request.Context(), emergencyID, partnerUserID, &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Marked en route", emergency)
}

// MarkArrived stamps the actual arrival time
func (h *PartnerHandler) MarkArrived(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	emergency, err := h.emergencyService.MarkArrived(c.Request.Context(), emergencyID, partnerUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Marked arrived", emergency)
}

// Complete closes out a case
func (h *PartnerHandler) Complete(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	emergency, err := h.emergencyService.Complete(c.Request.Context(), emergencyID, partnerUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency completed", emergency)
}

// Dismiss hides an open emergency from the caller's own feed only
func (h *PartnerHandler) Dismiss(c *gin.Context) {
	emergencyID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.emergencyService.Dismiss(c.Request.Context(), emergencyID, partnerUserID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency dismissed from your feed", nil)
}

// GetProfile returns the caller's ambulance profile
func (h *PartnerHandler) GetProfile(c *gin.Context) {
	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	partner, err := h.partnerService.GetProfile(c.Request.Context(), partnerUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved", partner)
}

// CreateProfile registers the caller's ambulance profile
func (h *PartnerHandler) CreateProfile(c *gin.Context) {
	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request struct {
		DriverName      string  `json:"driver_name" binding:"required"`
		Phone           string  `json:"phone" binding:"required"`
		VehicleNumber   string  `json:"vehicle_number" binding:"required"`
		VehicleType     string  `json:"vehicle_type"`
		ServiceRadiusKM float64 `json:"service_radius_km"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	partner := &models.AmbulancePartner{
		UserID:          partnerUserID,
		DriverName:      request.DriverName,
		Phone:           request.Phone,
		VehicleNumber:   request.VehicleNumber,
		VehicleType:     request.VehicleType,
		ServiceRadiusKM: request.ServiceRadiusKM,
		IsAvailable:     true,
	}

	if err := h.partnerService.CreateProfile(c.Request.Context(), partner); err != nil {
		utils.BadRequestResponse(c, "Invalid profile: "+err.Error())
		return
	}

	utils.CreatedResponse(c, "Profile created", partner)
}

// UpdateProfile updates the caller's ambulance profile
func (h *PartnerHandler) UpdateProfile(c *gin.Context) {
	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request struct {
		DriverName      *string  `json:"driver_name"`
		Phone           *string  `json:"phone"`
		VehicleNumber   *string  `json:"vehicle_number"`
		VehicleType     *string  `json:"vehicle_type"`
		ServiceRadiusKM *float64 `json:"service_radius_km"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if request.DriverName != nil {
		updates["driver_name"] = *request.DriverName
	}
	if request.Phone != nil {
		updates["phone"] = *request.Phone
	}
	if request.VehicleNumber != nil {
		updates["vehicle_number"] = *request.VehicleNumber
	}
	if request.VehicleType != nil {
		updates["vehicle_type"] = *request.VehicleType
	}
	if request.ServiceRadiusKM != nil {
		updates["service_radius_km"] = *request.ServiceRadiusKM
	}
	if len(updates) == 0 {
		utils.BadRequestResponse(c, "No fields to update")
		return
	}

	partner, err := h.partnerService.UpdateProfile(c.Request.Context(), partnerUserID, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated", partner)
}

// SetAvailability toggles whether the partner appears ready for dispatch
func (h *PartnerHandler) SetAvailability(c *gin.Context) {
	partnerUserID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.partnerService.SetAvailability(c.Request.Context(), partnerUserID, *request.Available); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Availability updated", nil)
}
