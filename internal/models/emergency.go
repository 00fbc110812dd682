package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyStatus string

const (
	EmergencyStatusInitiated EmergencyStatus = "initiated"
	EmergencyStatusAccepted  EmergencyStatus = "accepted"
	EmergencyStatusEnRoute   EmergencyStatus = "en_route"
	EmergencyStatusArrived   EmergencyStatus = "arrived"
	EmergencyStatusCompleted EmergencyStatus = "completed"
	EmergencyStatusCancelled EmergencyStatus = "cancelled"
)

// nextStatus is the only allowed forward edge for each non-terminal status.
var nextStatus = map[EmergencyStatus]EmergencyStatus{
	EmergencyStatusInitiated: EmergencyStatusAccepted,
	EmergencyStatusAccepted:  EmergencyStatusEnRoute,
	EmergencyStatusEnRoute:   EmergencyStatusArrived,
	EmergencyStatusArrived:   EmergencyStatusCompleted,
}

// CanTransitionTo reports whether target is a legal next status. Transitions
// never skip or regress; cancellation is reachable only from initiated.
func (s EmergencyStatus) CanTransitionTo(target EmergencyStatus) bool {
	if target == EmergencyStatusCancelled {
		return s == EmergencyStatusInitiated
	}
	return nextStatus[s] == target
}

// Next returns the single forward transition from s, if any.
func (s EmergencyStatus) Next() (EmergencyStatus, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

func (s EmergencyStatus) IsTerminal() bool {
	return s == EmergencyStatusCompleted || s == EmergencyStatusCancelled
}

// ActiveStatuses are the statuses visible on partner dispatch feeds.
func ActiveStatuses() []EmergencyStatus {
	return []EmergencyStatus{
		EmergencyStatusInitiated,
		EmergencyStatusAccepted,
		EmergencyStatusEnRoute,
		EmergencyStatusArrived,
	}
}

// Emergency is the permanent record of one SOS incident. The origin location,
// symptoms and notes are write-once at creation; the assignment fields are
// populated together exactly once when a partner wins the accept race and are
// never reassigned afterwards.
type Emergency struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	Location          Location            `json:"location" bson:"location" validate:"required"`
	Symptoms          string              `json:"symptoms" bson:"symptoms"`
	Notes             string              `json:"notes" bson:"notes"`
	Status            EmergencyStatus     `json:"status" bson:"status" default:"initiated"`
	PartnerID         *primitive.ObjectID `json:"partner_id" bson:"partner_id"`
	TrackingCode      string              `json:"tracking_code" bson:"tracking_code"`
	DriverName        string              `json:"driver_name" bson:"driver_name"`
	DriverPhone       string              `json:"driver_phone" bson:"driver_phone"`
	VehicleNumber     string              `json:"vehicle_number" bson:"vehicle_number"`
	VehicleType       string              `json:"vehicle_type" bson:"vehicle_type"`
	EstimatedArrival  *time.Time          `json:"estimated_arrival" bson:"estimated_arrival"`
	ActualArrival     *time.Time          `json:"actual_arrival" bson:"actual_arrival"`
	AmbulanceLocation *Location           `json:"ambulance_location" bson:"ambulance_location"`
	CancelReason      string              `json:"cancel_reason" bson:"cancel_reason"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

func (e *Emergency) IsAssignedTo(partnerID primitive.ObjectID) bool {
	return e.PartnerID != nil && *e.PartnerID == partnerID
}

// Assignment carries the fields written atomically when a partner accepts.
type Assignment struct {
	PartnerID        primitive.ObjectID `json:"partner_id" bson:"partner_id"`
	TrackingCode     string             `json:"tracking_code" bson:"tracking_code"`
	DriverName       string             `json:"driver_name" bson:"driver_name"`
	DriverPhone      string             `json:"driver_phone" bson:"driver_phone"`
	VehicleNumber    string             `json:"vehicle_number" bson:"vehicle_number"`
	VehicleType      string             `json:"vehicle_type" bson:"vehicle_type"`
	EstimatedArrival time.Time          `json:"estimated_arrival" bson:"estimated_arrival"`
}

// EmergencyChange is the thin change-stream notification fanned out to
// connected partners. Consumers re-query instead of trusting the payload.
type EmergencyChange struct {
	EmergencyID primitive.ObjectID `json:"emergency_id"`
	Operation   string             `json:"operation"`
}

type SOSRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Symptoms  string   `json:"symptoms"`
	Notes     string   `json:"notes"`
}

// TransitionRequest optionally carries the responder's current position.
// Both fields absent means the device could not provide a fix; the
// transition proceeds without a location update.
type TransitionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type ETAResponse struct {
	DistanceKM  string  `json:"distance_km"`
	ETAMinutes  int     `json:"eta_minutes"`
	Source      string  `json:"source"` // haversine, routing
	RawDistance float64 `json:"-"`
}

type ActiveCases struct {
	Accepted []*Emergency `json:"accepted"`
	EnRoute  []*Emergency `json:"en_route"`
	Arrived  []*Emergency `json:"arrived"`
}
