package interfaces

import (
	"context"

	"healthmate/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner *models.AmbulancePartner) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.AmbulancePartner, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.AmbulancePartner, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error
}
