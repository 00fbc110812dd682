package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the dispatch queries depend on. The
// status/created_at compound index backs the open-emergency feed, the
// partner_id index the active-case view, and the 2dsphere index nearby
// lookups against the origin location.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	emergencyIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys:    bson.D{{Key: "tracking_code", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	if _, err := db.Collection("emergencies").Indexes().CreateMany(ctx, emergencyIndexes); err != nil {
		return fmt.Errorf("failed to create emergency indexes: %w", err)
	}

	partnerIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_available", Value: 1}},
		},
	}

	if _, err := db.Collection("ambulance_partners").Indexes().CreateMany(ctx, partnerIndexes); err != nil {
		return fmt.Errorf("failed to create partner indexes: %w", err)
	}

	patientIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := db.Collection("patients").Indexes().CreateMany(ctx, patientIndexes); err != nil {
		return fmt.Errorf("failed to create patient indexes: %w", err)
	}

	return nil
}
