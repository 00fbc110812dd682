package services

import (
	"context"
	"time"

	"healthmate/internal/config"
	"healthmate/internal/models"
	"healthmate/internal/repositories/interfaces"
	"healthmate/internal/utils"
	"healthmate/pkg/logger"
	"healthmate/pkg/maps"
	"healthmate/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyService interface {
	// Patient side
	InitiateSOS(ctx context.Context, userID primitive.ObjectID, request *models.SOSRequest) (*models.Emergency, bool, error)
	GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)
	CancelSOS(ctx context.Context, id, userID primitive.ObjectID, reason string) error
	GetHistory(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error)

	// Partner side
	GetOpenEmergencies(ctx context.Context, partnerUserID primitive.ObjectID) ([]*models.Emergency, error)
	GetActiveCases(ctx context.Context, partnerUserID primitive.ObjectID) (*models.ActiveCases, error)
	Accept(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error)
	MarkEnRoute(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID, request *models.TransitionRequest) (*models.Emergency, error)
	MarkArrived(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error)
	Complete(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error)
	Dismiss(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) error

	// Display helpers and maintenance
	EstimateArrival(ctx context.Context, emergencyID primitive.ObjectID, vehicleLat, vehicleLng *float64) (*models.ETAResponse, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type emergencyService struct {
	emergencyRepo interfaces.EmergencyRepository
	partnerRepo   interfaces.PartnerRepository
	cache         CacheService
	wsHandler     *websocket.Handler
	notifier      NotificationService
	routing       maps.RoutingProvider
	config        *config.DispatchConfig
	logger        *logger.Logger
}

func NewEmergencyService(
	config *config.DispatchConfig,
	emergencyRepo interfaces.EmergencyRepository,
	partnerRepo interfaces.PartnerRepository,
	cache CacheService,
	wsHandler *websocket.Handler,
	notifier NotificationService,
	routing maps.RoutingProvider,
	logger *logger.Logger,
) EmergencyService {
	return &emergencyService{
		emergencyRepo: emergencyRepo,
		partnerRepo:   partnerRepo,
		cache:         cache,
		wsHandler:     wsHandler,
		notifier:      notifier,
		routing:       routing,
		config:        config,
		logger:        logger,
	}
}

// InitiateSOS creates the emergency record that dispatch revolves around.
// A usable origin location is mandatory; everything else is optional input
// from the reporting user. If the user already has a live event, it is
// returned instead of creating a duplicate. The second return value reports
// whether a new record was created.
func (s *emergencyService) InitiateSOS(ctx context.Context, userID primitive.ObjectID, request *models.SOSRequest) (*models.Emergency, bool, error) {
	if request.Latitude == nil || request.Longitude == nil {
		return nil, false, ErrLocationUnavailable
	}

	location := models.NewLocation(*request.Latitude, *request.Longitude)
	if !location.IsValid() {
		return nil, false, ErrLocationUnavailable
	}

	// One live event per user
	existing, err := s.emergencyRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	emergency := &models.Emergency{
		UserID:   userID,
		Location: location,
		Symptoms: request.Symptoms,
		Notes:    request.Notes,
		Status:   models.EmergencyStatusInitiated,
	}

	if err := s.emergencyRepo.Create(ctx, emergency); err != nil {
		return nil, false, err
	}

	s.logger.LogEmergencyEvent(emergency.ID, "sos_initiated", map[string]interface{}{
		"user_id": userID.Hex(),
	})

	if s.notifier != nil {
		go s.notifier.NotifyEmergencyContacts(context.Background(), emergency)
	}

	return emergency, true, nil
}

func (s *emergencyService) GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	return s.emergencyRepo.GetByID(ctx, id)
}

func (s *emergencyService) CancelSOS(ctx context.Context, id, userID primitive.ObjectID, reason string) error {
	ok, err := s.emergencyRepo.Cancel(ctx, id, userID, reason)
	if err != nil {
		return err
	}
	if !ok {
		// Already accepted, not the caller's event, or already terminal
		return ErrInvalidTransition
	}

	s.logger.LogEmergencyEvent(id, "sos_cancelled", map[string]interface{}{
		"reason": reason,
	})

	return nil
}

func (s *emergencyService) GetHistory(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	return s.emergencyRepo.GetByUserID(ctx, userID, params)
}

// GetOpenEmergencies returns the claimable feed for one partner: every
// initiated event, newest first, minus the ones this partner has dismissed.
// Dismissals are local state; the events stay visible to everyone else.
func (s *emergencyService) GetOpenEmergencies(ctx context.Context, partnerUserID primitive.ObjectID) ([]*models.Emergency, error) {
	open, err := s.emergencyRepo.GetOpen(ctx)
	if err != nil {
		return nil, err
	}

	dismissed := s.dismissedSet(ctx, partnerUserID)
	if len(dismissed) == 0 {
		return open, nil
	}

	filtered := make([]*models.Emergency, 0, len(open))
	for _, e := range open {
		if !dismissed[e.ID.Hex()] {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (s *emergencyService) GetActiveCases(ctx context.Context, partnerUserID primitive.ObjectID) (*models.ActiveCases, error) {
	emergencies, err := s.emergencyRepo.GetActiveByPartner(ctx, partnerUserID)
	if err != nil {
		return nil, err
	}

	cases := &models.ActiveCases{}
	for _, e := range emergencies {
		switch e.Status {
		case models.EmergencyStatusAccepted:
			cases.Accepted = append(cases.Accepted, e)
		case models.EmergencyStatusEnRoute:
			cases.EnRoute = append(cases.EnRoute, e)
		case models.EmergencyStatusArrived:
			cases.Arrived = append(cases.Arrived, e)
		}
	}
	return cases, nil
}

// Accept claims an initiated emergency for the calling partner. The write is
// a single conditional update at the store, so of N racing partners exactly
// one wins; every other caller gets ErrLostRace, which is an expected
// outcome, not a failure.
func (s *emergencyService) Accept(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, partnerUserID)
	if err != nil {
		return nil, ErrPartnerNotFound
	}

	assignment := &models.Assignment{
		PartnerID:        partner.UserID,
		TrackingCode:     utils.GenerateTrackingCode(),
		DriverName:       partner.DriverName,
		DriverPhone:      partner.Phone,
		VehicleNumber:    partner.VehicleNumber,
		VehicleType:      partner.VehicleType,
		EstimatedArrival: time.Now().Add(s.etaWindow()),
	}

	won, err := s.emergencyRepo.Accept(ctx, emergencyID, assignment)
	if err != nil {
		return nil, err
	}
	if !won {
		if _, err := s.emergencyRepo.GetByID(ctx, emergencyID); err != nil {
			return nil, ErrEmergencyNotFound
		}
		return nil, ErrLostRace
	}

	emergency, err := s.emergencyRepo.GetByID(ctx, emergencyID)
	if err != nil {
		return nil, err
	}

	s.logger.LogEmergencyEvent(emergencyID, "accepted", map[string]interface{}{
		"partner_id":    partner.UserID.Hex(),
		"tracking_code": assignment.TrackingCode,
	})

	s.notifyCaseUpdate(emergency, "emergency_accepted")

	return emergency, nil
}

func (s *emergencyService) MarkEnRoute(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID, request *models.TransitionRequest) (*models.Emergency, error) {
	updates := map[string]interface{}{}

	// Live position is best effort. A device that cannot produce a fix never
	// blocks the transition.
	if request != nil && request.Latitude != nil && request.Longitude != nil {
		location := models.NewLocation(*request.Latitude, *request.Longitude)
		if location.IsValid() {
			updates["ambulance_location"] = location
		}
	}

	return s.transition(ctx, emergencyID, partnerUserID, models.EmergencyStatusEnRoute, updates)
}

func (s *emergencyService) MarkArrived(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error) {
	updates := map[string]interface{}{
		"actual_arrival": time.Now(),
	}
	return s.transition(ctx, emergencyID, partnerUserID, models.EmergencyStatusArrived, updates)
}

func (s *emergencyService) Complete(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error) {
	return s.transition(ctx, emergencyID, partnerUserID, models.EmergencyStatusCompleted, nil)
}

// Dismiss hides an open emergency from the calling partner's feed only. The
// shared record is untouched; other partners continue to see the event.
func (s *emergencyService) Dismiss(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DismissEmergency(ctx, partnerUserID, emergencyID)
}

func (s *emergencyService) EstimateArrival(ctx context.Context, emergencyID primitive.ObjectID, vehicleLat, vehicleLng *float64) (*models.ETAResponse, error) {
	emergency, err := s.emergencyRepo.GetByID(ctx, emergencyID)
	if err != nil {
		return nil, ErrEmergencyNotFound
	}

	var lat, lng float64
	switch {
	case vehicleLat != nil && vehicleLng != nil:
		lat, lng = *vehicleLat, *vehicleLng
	case emergency.AmbulanceLocation != nil:
		lat, lng = emergency.AmbulanceLocation.Latitude(), emergency.AmbulanceLocation.Longitude()
	default:
		return nil, ErrLocationUnavailable
	}

	if s.routing != nil {
		estimate, err := s.routing.RouteEstimate(ctx,
			maps.Location{Latitude: lat, Longitude: lng},
			maps.Location{Latitude: emergency.Location.Latitude(), Longitude: emergency.Location.Longitude()},
		)
		if err == nil {
			return &models.ETAResponse{
				DistanceKM:  utils.FormatDistance(estimate.DistanceKM),
				ETAMinutes:  estimate.DurationMinutes,
				Source:      "routing",
				RawDistance: estimate.DistanceKM,
			}, nil
		}
		s.logger.WithError(err).WithEmergencyID(emergencyID).Debug("Routing estimate failed, using haversine")
	}

	distance := utils.CalculateDistance(lat, lng, emergency.Location.Latitude(), emergency.Location.Longitude())
	return &models.ETAResponse{
		DistanceKM:  utils.FormatDistance(distance),
		ETAMinutes:  utils.EstimateETAMinutes(distance, utils.AverageAmbulanceSpeed),
		Source:      "haversine",
		RawDistance: distance,
	}, nil
}

// ExpireStale cancels initiated events older than the configured window.
// The repository predicate guarantees a concurrent accept beats the sweep.
func (s *emergencyService) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.staleWindow())
	expired, err := s.emergencyRepo.ExpireStale(ctx, cutoff, "auto-expired: no partner response")
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.logger.Infof("Expired %d stale emergencies", expired)
	}
	return expired, nil
}

func (s *emergencyService) transition(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID, to models.EmergencyStatus, updates map[string]interface{}) (*models.Emergency, error) {
	emergency, err := s.emergencyRepo.GetByID(ctx, emergencyID)
	if err != nil {
		return nil, ErrEmergencyNotFound
	}

	if !emergency.IsAssignedTo(partnerUserID) {
		return nil, ErrNotAssigned
	}
	if !emergency.Status.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}

	ok, err := s.emergencyRepo.Transition(ctx, emergencyID, partnerUserID, emergency.Status, to, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The record moved between our read and write
		return nil, ErrInvalidTransition
	}

	updated, err := s.emergencyRepo.GetByID(ctx, emergencyID)
	if err != nil {
		return nil, err
	}

	s.logger.LogEmergencyEvent(emergencyID, string(to), map[string]interface{}{
		"partner_id": partnerUserID.Hex(),
	})

	s.notifyCaseUpdate(updated, "emergency_"+string(to))

	return updated, nil
}

func (s *emergencyService) notifyCaseUpdate(emergency *models.Emergency, updateType string) {
	if s.wsHandler == nil {
		return
	}

	data := map[string]interface{}{
		"emergency_id": emergency.ID.Hex(),
		"status":       string(emergency.Status),
	}

	s.wsHandler.SendEmergencyUpdate(emergency.ID, updateType, data)
	s.wsHandler.SendUserNotification(emergency.UserID, updateType, data)
}

func (s *emergencyService) dismissedSet(ctx context.Context, partnerUserID primitive.ObjectID) map[string]bool {
	if s.cache == nil {
		return nil
	}

	dismissed, err := s.cache.GetDismissedEmergencies(ctx, partnerUserID)
	if err != nil {
		s.logger.WithError(err).Debug("Could not load dismissals, serving unfiltered feed")
		return nil
	}
	return dismissed
}

func (s *emergencyService) etaWindow() time.Duration {
	if s.config != nil && s.config.AcceptETAWindow > 0 {
		return s.config.AcceptETAWindow
	}
	return utils.AcceptETAWindow
}

func (s *emergencyService) staleWindow() time.Duration {
	if s.config != nil && s.config.StaleEventExpiry > 0 {
		return s.config.StaleEventExpiry
	}
	return utils.SOSAutoCancel
}
