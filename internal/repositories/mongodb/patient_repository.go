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

type patientRepository struct {
	collection *mongo.Collection
}

func NewPatientRepository(db *mongo.Database) interfaces.PatientRepository {
	return &patientRepository{
		collection: db.Collection("patients"),
	}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	patient.ID = primitive.NewObjectID()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, patient)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	return nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Patient, error) {
	var patient models.Patient
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&patient)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("patient not found")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	return nil
}
