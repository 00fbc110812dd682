package interfaces

import (
	"context"
	"time"

	"healthmate/internal/models"
	"healthmate/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyRepository interface {
	// Basic operations
	Create(ctx context.Context, emergency *models.Emergency) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)

	// Dispatch feeds
	GetOpen(ctx context.Context) ([]*models.Emergency, error)
	GetByStatuses(ctx context.Context, statuses []models.EmergencyStatus) ([]*models.Emergency, error)
	GetActiveByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Emergency, error)

	// User views
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.Emergency, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error)

	// Conditional writes. Accept succeeds for at most one caller per event;
	// Transition is predicated on both the expected status and the assigned
	// partner. Both report whether the write landed.
	Accept(ctx context.Context, id primitive.ObjectID, assignment *models.Assignment) (bool, error)
	Transition(ctx context.Context, id primitive.ObjectID, partnerID primitive.ObjectID, from, to models.EmergencyStatus, updates map[string]interface{}) (bool, error)
	Cancel(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, reason string) (bool, error)
	ExpireStale(ctx context.Context, olderThan time.Time, reason string) (int64, error)

	// Change feed
	WatchChanges(ctx context.Context, onChange func(models.EmergencyChange)) error
}
