package routes

import (
	"healthmate/internal/handlers"
	"healthmate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupEmergencyRoutes sets up the patient-facing emergency routes
func SetupEmergencyRoutes(r *gin.RouterGroup, emergencyHandler *handlers.EmergencyHandler, jwtSecret string) {
	emergencies := r.Group("/emergencies")
	emergencies.Use(middleware.AuthRequired(jwtSecret))
	{
		emergencies.POST("/sos", middleware.PatientRequired(), emergencyHandler.InitiateSOS)
		emergencies.GET("/history", middleware.PatientRequired(), emergencyHandler.GetHistory)
		emergencies.GET("/:id", emergencyHandler.GetEmergency)
		emergencies.GET("/:id/eta", emergencyHandler.GetETA)
		emergencies.POST("/:id/cancel", middleware.PatientRequired(), emergencyHandler.CancelSOS)
	}

	r.POST("/assessment", middleware.AuthRequired(jwtSecret), emergencyHandler.AssessSymptoms)
}
