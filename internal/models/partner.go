package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AmbulancePartner is the responder profile owned by the partner-management
// screens. The dispatch core only reads it, to copy assignment values into an
// emergency at acceptance time.
type AmbulancePartner struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	DriverName      string             `json:"driver_name" bson:"driver_name" validate:"required"`
	Phone           string             `json:"phone" bson:"phone" validate:"required"`
	VehicleNumber   string             `json:"vehicle_number" bson:"vehicle_number" validate:"required"`
	VehicleType     string             `json:"vehicle_type" bson:"vehicle_type"`
	ServiceRadiusKM float64            `json:"service_radius_km" bson:"service_radius_km"`
	IsAvailable     bool               `json:"is_available" bson:"is_available" default:"true"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
