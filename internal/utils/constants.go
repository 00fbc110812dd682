package utils

import "time"

// Application Constants
const (
	AppName    = "HealthMate"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Dispatch
	AcceptETAWindow       = 15 * time.Minute // placeholder ETA stamped at acceptance
	SOSAutoCancel         = 30 * time.Minute // initiated events older than this are expired
	ExpirySweepInterval   = time.Minute
	DefaultServiceRadius  = 10.0 // kilometers
	AverageAmbulanceSpeed = 30.0 // km/h, coarse city estimate for display ETA

	// Tracking codes
	TrackingCodePrefix = "AMB-"

	// Cache
	ActiveEmergencyTTL = 30 * time.Minute
	DismissalTTL       = 24 * time.Hour

	// Notification
	SMSTimeout = 10 * time.Second

	// Geo
	EarthRadiusKM = 6371.0

	// Response statuses
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
)
