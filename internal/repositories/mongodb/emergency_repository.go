package mongodb

import (
	"context"
	"fmt"
	"time"

	"healthmate/internal/models"
	"healthmate/internal/repositories/interfaces"
	"healthmate/internal/services"
	"healthmate/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type emergencyRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewEmergencyRepository(db *mongo.Database, cache services.CacheService) interfaces.EmergencyRepository {
	return &emergencyRepository{
		collection: db.Collection("emergencies"),
		cache:      cache,
	}
}

func (r *emergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	emergency.ID = primitive.NewObjectID()
	emergency.CreatedAt = time.Now()
	emergency.UpdatedAt = time.Now()
	if emergency.Status == "" {
		emergency.Status = models.EmergencyStatusInitiated
	}

	_, err := r.collection.InsertOne(ctx, emergency)
	if err != nil {
		return fmt.Errorf("failed to create emergency: %w", err)
	}

	r.cacheEmergency(ctx, emergency)

	return nil
}

func (r *emergencyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	if emergency := r.getEmergencyFromCache(ctx, id.Hex()); emergency != nil {
		return emergency, nil
	}

	var emergency models.Emergency
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&emergency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("emergency not found")
		}
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}

	r.cacheEmergency(ctx, &emergency)

	return &emergency, nil
}

func (r *emergencyRepository) GetOpen(ctx context.Context) ([]*models.Emergency, error) {
	filter := bson.M{"status": models.EmergencyStatusInitiated}
	return r.findEmergencies(ctx, filter)
}

func (r *emergencyRepository) GetByStatuses(ctx context.Context, statuses []models.EmergencyStatus) ([]*models.Emergency, error) {
	filter := bson.M{"status": bson.M{"$in": statuses}}
	return r.findEmergencies(ctx, filter)
}

func (r *emergencyRepository) GetActiveByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Emergency, error) {
	filter := bson.M{
		"partner_id": partnerID,
		"status": bson.M{"$in": []models.EmergencyStatus{
			models.EmergencyStatusAccepted,
			models.EmergencyStatusEnRoute,
			models.EmergencyStatusArrived,
		}},
	}
	return r.findEmergencies(ctx, filter)
}

func (r *emergencyRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.Emergency, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": models.ActiveStatuses()},
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var emergency models.Emergency
	err := r.collection.FindOne(ctx, filter, opts).Decode(&emergency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active emergency for user: %w", err)
	}

	return &emergency, nil
}

func (r *emergencyRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emergencies: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find emergencies by user: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	if err := cursor.All(ctx, &emergencies); err != nil {
		return nil, 0, fmt.Errorf("failed to decode emergencies: %w", err)
	}

	return emergencies, total, nil
}

// Accept is the single conditional write resolving the acceptance race. The
// status predicate makes the update atomic at the store: of N concurrent
// callers exactly one observes status == initiated and lands the assignment;
// the rest see a zero modified count.
func (r *emergencyRepository) Accept(ctx context.Context, id primitive.ObjectID, assignment *models.Assignment) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.EmergencyStatusInitiated,
	}

	update := bson.M{"$set": bson.M{
		"status":            models.EmergencyStatusAccepted,
		"partner_id":        assignment.PartnerID,
		"tracking_code":     assignment.TrackingCode,
		"driver_name":       assignment.DriverName,
		"driver_phone":      assignment.DriverPhone,
		"vehicle_number":    assignment.VehicleNumber,
		"vehicle_type":      assignment.VehicleType,
		"estimated_arrival": assignment.EstimatedArrival,
		"updated_at":        time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to accept emergency: %w", err)
	}

	r.invalidateEmergencyCache(ctx, id.Hex())

	return result.ModifiedCount == 1, nil
}

// Transition advances an accepted case one step. The predicate pins both the
// expected current status and the assigned partner, so a caller who is not
// the assignee, or whose view is stale, cannot move the record.
func (r *emergencyRepository) Transition(ctx context.Context, id primitive.ObjectID, partnerID primitive.ObjectID, from, to models.EmergencyStatus, updates map[string]interface{}) (bool, error) {
	filter := bson.M{
		"_id":        id,
		"status":     from,
		"partner_id": partnerID,
	}

	set := bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition emergency: %w", err)
	}

	r.invalidateEmergencyCache(ctx, id.Hex())

	return result.ModifiedCount == 1, nil
}

func (r *emergencyRepository) Cancel(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, reason string) (bool, error) {
	filter := bson.M{
		"_id":     id,
		"user_id": userID,
		"status":  models.EmergencyStatusInitiated,
	}

	update := bson.M{"$set": bson.M{
		"status":        models.EmergencyStatusCancelled,
		"cancel_reason": reason,
		"updated_at":    time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel emergency: %w", err)
	}

	r.invalidateEmergencyCache(ctx, id.Hex())

	return result.ModifiedCount == 1, nil
}

// ExpireStale cancels initiated events nobody accepted. The status predicate
// means a concurrent accept always wins over the sweep.
func (r *emergencyRepository) ExpireStale(ctx context.Context, olderThan time.Time, reason string) (int64, error) {
	filter := bson.M{
		"status":     models.EmergencyStatusInitiated,
		"created_at": bson.M{"$lt": olderThan},
	}

	update := bson.M{"$set": bson.M{
		"status":        models.EmergencyStatusCancelled,
		"cancel_reason": reason,
		"updated_at":    time.Now(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale emergencies: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *emergencyRepository) WatchChanges(ctx context.Context, onChange func(models.EmergencyChange)) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": []string{"insert", "update", "replace"}},
		}}},
	}

	stream, err := r.collection.Watch(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to open change stream: %w", err)
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		var event struct {
			OperationType string `bson:"operationType"`
			DocumentKey   struct {
				ID primitive.ObjectID `bson:"_id"`
			} `bson:"documentKey"`
		}
		if err := stream.Decode(&event); err != nil {
			continue
		}

		onChange(models.EmergencyChange{
			EmergencyID: event.DocumentKey.ID,
			Operation:   event.OperationType,
		})
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("change stream failed: %w", err)
	}

	return nil
}

func (r *emergencyRepository) findEmergencies(ctx context.Context, filter bson.M) ([]*models.Emergency, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	if err := cursor.All(ctx, &emergencies); err != nil {
		return nil, fmt.Errorf("failed to decode emergencies: %w", err)
	}

	return emergencies, nil
}

func (r *emergencyRepository) cacheEmergency(ctx context.Context, emergency *models.Emergency) {
	if r.cache == nil || emergency.Status.IsTerminal() {
		return
	}
	r.cache.Set(ctx, "emergency:"+emergency.ID.Hex(), emergency, utils.ActiveEmergencyTTL)
}

func (r *emergencyRepository) getEmergencyFromCache(ctx context.Context, idHex string) *models.Emergency {
	if r.cache == nil {
		return nil
	}

	var emergency models.Emergency
	if err := r.cache.Get(ctx, "emergency:"+idHex, &emergency); err != nil {
		return nil
	}
	return &emergency
}

func (r *emergencyRepository) invalidateEmergencyCache(ctx context.Context, idHex string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, "emergency:"+idHex)
}
