package routes

import (
	"healthmate/internal/handlers"
	"healthmate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPartnerRoutes sets up the ambulance partner routes
func SetupPartnerRoutes(r *gin.RouterGroup, partnerHandler *handlers.PartnerHandler, jwtSecret string) {
	partner := r.Group("/partner")
	partner.Use(middleware.AuthRequired(jwtSecret), middleware.PartnerRequired())
	{
		partner.GET("/emergencies/open", partnerHandler.GetOpenEmergencies)
		partner.GET("/emergencies/active", partnerHandler.GetActiveCases)
		partner.POST("/emergencies/:id/accept", partnerHandler.Accept)
		partner.POST("/emergencies/:id/en-route", partnerHandler.MarkEnRoute)
		partner.POST("/emergencies/:id/arrived", partnerHandler.MarkArrived)
		partner.POST("/emergencies/:id/complete", partnerHandler.Complete)
		partner.POST("/emergencies/:id/dismiss", partnerHandler.Dismiss)

		partner.GET("/profile", partnerHandler.GetProfile)
		partner.POST("/profile", partnerHandler.CreateProfile)
		partner.PUT("/profile", partnerHandler.UpdateProfile)
		partner.PUT("/availability", partnerHandler.SetAvailability)
	}
}
