package validators

import (
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"healthmate/internal/models"
)

var validate *validator.Validate

const maxFreeTextLength = 2000

func init() {
	validate = validator.New()
	validate.RegisterValidation("object_id", validateObjectID)
}

func validateObjectID(fl validator.FieldLevel) bool {
	_, err := primitive.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

// ValidateSOSRequest checks an initiation payload. The origin location is
// mandatory: an SOS without a usable position cannot be dispatched.
func ValidateSOSRequest(request *models.SOSRequest) map[string]string {
	errors := make(map[string]string)

	if request.Latitude == nil || request.Longitude == nil {
		errors["location"] = "latitude and longitude are required"
		return errors
	}

	if *request.Latitude < -90 || *request.Latitude > 90 {
		errors["latitude"] = "latitude must be between -90 and 90"
	}
	if *request.Longitude < -180 || *request.Longitude > 180 {
		errors["longitude"] = "longitude must be between -180 and 180"
	}

	if len(request.Symptoms) > maxFreeTextLength {
		errors["symptoms"] = "symptoms description too long"
	}
	if len(request.Notes) > maxFreeTextLength {
		errors["notes"] = "notes too long"
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}

// ValidateTransitionRequest checks an optional live-position payload. Both
// coordinates absent is valid; a half-specified or out-of-range pair is not.
func ValidateTransitionRequest(request *models.TransitionRequest) map[string]string {
	if request == nil {
		return nil
	}

	errors := make(map[string]string)

	if (request.Latitude == nil) != (request.Longitude == nil) {
		errors["location"] = "latitude and longitude must be provided together"
		return errors
	}

	if request.Latitude != nil {
		if *request.Latitude < -90 || *request.Latitude > 90 {
			errors["latitude"] = "latitude must be between -90 and 90"
		}
		if *request.Longitude < -180 || *request.Longitude > 180 {
			errors["longitude"] = "longitude must be between -180 and 180"
		}
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}

// ValidatePartner checks an ambulance partner profile with struct tags.
func ValidatePartner(partner *models.AmbulancePartner) error {
	return validate.Struct(partner)
}
