package mongodb

import (
	"context"
	"fmt"
	"time"

	"healthmate/internal/models"
	"healthmate/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type partnerRepository struct {
	collection *mongo.Collection
}

func NewPartnerRepository(db *mongo.Database) interfaces.PartnerRepository {
	return &partnerRepository{
		collection: db.Collection("ambulance_partners"),
	}
}

func (r *partnerRepository) Create(ctx context.Context, partner *models.AmbulancePartner) error {
	partner.ID = primitive.NewObjectID()
	partner.CreatedAt = time.Now()
	partner.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, partner)
	if err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}

	return nil
}

func (r *partnerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AmbulancePartner, error) {
	var partner models.AmbulancePartner
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("partner not found")
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return &partner, nil
}

func (r *partnerRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.AmbulancePartner, error) {
	var partner models.AmbulancePartner
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&partner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("partner not found")
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return &partner, nil
}

func (r *partnerRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update partner: %w", err)
	}

	return nil
}

func (r *partnerRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	return r.Update(ctx, id, map[string]interface{}{"is_available": available})
}
