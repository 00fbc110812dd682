package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyContact struct {
	Name  string `json:"name" bson:"name" validate:"required"`
	Phone string `json:"phone" bson:"phone" validate:"required"`
}

// Patient holds the user-side profile consulted by the SOS flow, chiefly the
// emergency contacts alerted when an SOS is raised.
type Patient struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Name              string             `json:"name" bson:"name"`
	Phone             string             `json:"phone" bson:"phone"`
	BloodGroup        string             `json:"blood_group" bson:"blood_group"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts" bson:"emergency_contacts"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}
