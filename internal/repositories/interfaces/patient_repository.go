package interfaces

import (
	"context"

	"healthmate/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Patient, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
}
