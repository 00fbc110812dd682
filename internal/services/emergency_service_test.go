package services_test

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"healthmate/internal/config"
	"healthmate/internal/models"
	"healthmate/internal/services"
	"healthmate/internal/utils"
	"healthmate/pkg/logger"
)

// In-memory emergency store with the same conditional-write semantics as the
// real repository: Accept and Transition land only when the stored record
// still matches the caller's expectation.
type fakeEmergencyRepo struct {
	mu    sync.Mutex
	store map[primitive.ObjectID]*models.Emergency
}

func newFakeEmergencyRepo() *fakeEmergencyRepo {
	return &fakeEmergencyRepo{store: make(map[primitive.ObjectID]*models.Emergency)}
}

func (r *fakeEmergencyRepo) Create(ctx context.Context, emergency *models.Emergency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	emergency.ID = primitive.NewObjectID()
	emergency.CreatedAt = time.Now()
	emergency.UpdatedAt = emergency.CreatedAt
	copied := *emergency
	r.store[emergency.ID] = &copied
	return nil
}

func (r *fakeEmergencyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok {
		return nil, services.ErrEmergencyNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEmergencyRepo) GetOpen(ctx context.Context) ([]*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var open []*models.Emergency
	for _, e := range r.store {
		if e.Status == models.EmergencyStatusInitiated {
			copied := *e
			open = append(open, &copied)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.After(open[j].CreatedAt) })
	return open, nil
}

func (r *fakeEmergencyRepo) GetByStatuses(ctx context.Context, statuses []models.EmergencyStatus) ([]*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Emergency
	for _, e := range r.store {
		for _, s := range statuses {
			if e.Status == s {
				copied := *e
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeEmergencyRepo) GetActiveByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Emergency
	for _, e := range r.store {
		if e.IsAssignedTo(partnerID) && !e.Status.IsTerminal() {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeEmergencyRepo) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.Emergency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.store {
		if e.UserID == userID && !e.Status.IsTerminal() {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEmergencyRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Emergency
	for _, e := range r.store {
		if e.UserID == userID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeEmergencyRepo) Accept(ctx context.Context, id primitive.ObjectID, assignment *models.Assignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok || e.Status != models.EmergencyStatusInitiated {
		return false, nil
	}

	partnerID := assignment.PartnerID
	eta := assignment.EstimatedArrival
	e.Status = models.EmergencyStatusAccepted
	e.PartnerID = &partnerID
	e.TrackingCode = assignment.TrackingCode
	e.DriverName = assignment.DriverName
	e.DriverPhone = assignment.DriverPhone
	e.VehicleNumber = assignment.VehicleNumber
	e.VehicleType = assignment.VehicleType
	e.EstimatedArrival = &eta
	e.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeEmergencyRepo) Transition(ctx context.Context, id primitive.ObjectID, partnerID primitive.ObjectID, from, to models.EmergencyStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok || e.Status != from || !e.IsAssignedTo(partnerID) {
		return false, nil
	}

	e.Status = to
	for key, value := range updates {
		switch key {
		case "ambulance_location":
			loc := value.(models.Location)
			e.AmbulanceLocation = &loc
		case "actual_arrival":
			at := value.(time.Time)
			e.ActualArrival = &at
		}
	}
	e.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeEmergencyRepo) Cancel(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok || e.Status != models.EmergencyStatusInitiated || e.UserID != userID {
		return false, nil
	}

	e.Status = models.EmergencyStatusCancelled
	e.CancelReason = reason
	e.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeEmergencyRepo) ExpireStale(ctx context.Context, olderThan time.Time, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired int64
	for _, e := range r.store {
		if e.Status == models.EmergencyStatusInitiated && e.CreatedAt.Before(olderThan) {
			e.Status = models.EmergencyStatusCancelled
			e.CancelReason = reason
			expired++
		}
	}
	return expired, nil
}

func (r *fakeEmergencyRepo) WatchChanges(ctx context.Context, onChange func(models.EmergencyChange)) error {
	<-ctx.Done()
	return nil
}

// backdate rewrites a stored record's creation time, for expiry tests.
func (r *fakeEmergencyRepo) backdate(id primitive.ObjectID, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.store[id]; ok {
		e.CreatedAt = createdAt
	}
}

type fakePartnerRepo struct {
	mu       sync.Mutex
	partners map[primitive.ObjectID]*models.AmbulancePartner
}

func newFakePartnerRepo() *fakePartnerRepo {
	return &fakePartnerRepo{partners: make(map[primitive.ObjectID]*models.AmbulancePartner)}
}

func (r *fakePartnerRepo) Create(ctx context.Context, partner *models.AmbulancePartner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	partner.ID = primitive.NewObjectID()
	r.partners[partner.UserID] = partner
	return nil
}

func (r *fakePartnerRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AmbulancePartner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.partners {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, services.ErrPartnerNotFound
}

func (r *fakePartnerRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.AmbulancePartner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partners[userID]
	if !ok {
		return nil, services.ErrPartnerNotFound
	}
	return p, nil
}

func (r *fakePartnerRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakePartnerRepo) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	return nil
}

// Dismissal store only; the other cache methods are unused by these tests.
type fakeCache struct {
	mu        sync.Mutex
	dismissed map[string]map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{dismissed: make(map[string]map[string]bool)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error { return nil }

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error { return nil }

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (c *fakeCache) SAdd(ctx context.Context, key string, members ...interface{}) error { return nil }

func (c *fakeCache) SMembers(ctx context.Context, key string) ([]string, error) { return nil, nil }
func (c *fakeCache) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	return false, nil
}
func (c *fakeCache) Ping(ctx context.Context) error { return nil }

func (c *fakeCache) DismissEmergency(ctx context.Context, partnerID, emergencyID primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.dismissed[partnerID.Hex()]
	if !ok {
		set = make(map[string]bool)
		c.dismissed[partnerID.Hex()] = set
	}
	set[emergencyID.Hex()] = true
	return nil
}

func (c *fakeCache) GetDismissedEmergencies(ctx context.Context, partnerID primitive.ObjectID) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dismissed[partnerID.Hex()], nil
}

type testEnv struct {
	service     services.EmergencyService
	emergencies *fakeEmergencyRepo
	partners    *fakePartnerRepo
	cache       *fakeCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.NewLogger(&logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	emergencies := newFakeEmergencyRepo()
	partners := newFakePartnerRepo()
	cacheStore := newFakeCache()

	cfg := &config.DispatchConfig{
		AcceptETAWindow:  15 * time.Minute,
		StaleEventExpiry: 30 * time.Minute,
	}

	service := services.NewEmergencyService(cfg, emergencies, partners, cacheStore, nil, nil, nil, log)
	return &testEnv{service: service, emergencies: emergencies, partners: partners, cache: cacheStore}
}

func (env *testEnv) addPartner(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	userID := primitive.NewObjectID()
	err := env.partners.Create(context.Background(), &models.AmbulancePartner{
		UserID:        userID,
		DriverName:    name,
		Phone:         "+919876543210",
		VehicleNumber: "KA01AB1234",
		VehicleType:   "basic",
		IsAvailable:   true,
	})
	require.NoError(t, err)
	return userID
}

func (env *testEnv) initiate(t *testing.T, userID primitive.ObjectID) *models.Emergency {
	t.Helper()
	lat, lng := 12.9716, 77.5946
	emergency, created, err := env.service.InitiateSOS(context.Background(), userID, &models.SOSRequest{
		Latitude:  &lat,
		Longitude: &lng,
		Symptoms:  "chest pain",
	})
	require.NoError(t, err)
	require.True(t, created)
	return emergency
}

func TestInitiateSOS_CreatesInitiatedRecord(t *testing.T) {
	env := newTestEnv(t)
	userID := primitive.NewObjectID()

	emergency := env.initiate(t, userID)

	assert.Equal(t, models.EmergencyStatusInitiated, emergency.Status)
	assert.Equal(t, userID, emergency.UserID)
	assert.Equal(t, 12.9716, emergency.Location.Latitude())
	assert.Equal(t, 77.5946, emergency.Location.Longitude())
	assert.Equal(t, "chest pain", emergency.Symptoms)
	assert.Nil(t, emergency.PartnerID)
	assert.Empty(t, emergency.TrackingCode)
}

func TestInitiateSOS_RequiresLocation(t *testing.T) {
	env := newTestEnv(t)
	lat := 12.9716

	_, _, err := env.service.InitiateSOS(context.Background(), primitive.NewObjectID(), &models.SOSRequest{Symptoms: "chest pain"})
	assert.ErrorIs(t, err, services.ErrLocationUnavailable)

	_, _, err = env.service.InitiateSOS(context.Background(), primitive.NewObjectID(), &models.SOSRequest{Latitude: &lat})
	assert.ErrorIs(t, err, services.ErrLocationUnavailable)

	badLat, lng := 95.0, 77.5946
	_, _, err = env.service.InitiateSOS(context.Background(), primitive.NewObjectID(), &models.SOSRequest{Latitude: &badLat, Longitude: &lng})
	assert.ErrorIs(t, err, services.ErrLocationUnavailable)
}

func TestInitiateSOS_ReturnsExistingActiveEvent(t *testing.T) {
	env := newTestEnv(t)
	userID := primitive.NewObjectID()

	first := env.initiate(t, userID)

	lat, lng := 13.0, 77.6
	second, created, err := env.service.InitiateSOS(context.Background(), userID, &models.SOSRequest{
		Latitude:  &lat,
		Longitude: &lng,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestAccept_SingleWinnerUnderContention(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())

	const contenders = 16
	partnerIDs := make([]primitive.ObjectID, contenders)
	for i := range partnerIDs {
		partnerIDs[i] = env.addPartner(t, "Driver")
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.service.Accept(context.Background(), emergency.ID, partnerIDs[i])
		}(i)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case err == services.ErrLostRace:
			losses++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, contenders-1, losses)

	final, err := env.service.GetEmergency(context.Background(), emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusAccepted, final.Status)
	require.NotNil(t, final.PartnerID)
	assert.Regexp(t, regexp.MustCompile(`^AMB-[0-9A-Z]+$`), final.TrackingCode)
}

func TestAccept_SetsAssignmentAndETA(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())
	partnerID := env.addPartner(t, "Ravi Kumar")

	before := time.Now()
	accepted, err := env.service.Accept(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)

	assert.Equal(t, models.EmergencyStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.PartnerID)
	assert.Equal(t, partnerID, *accepted.PartnerID)
	assert.Equal(t, "Ravi Kumar", accepted.DriverName)
	assert.Equal(t, "KA01AB1234", accepted.VehicleNumber)

	require.NotNil(t, accepted.EstimatedArrival)
	expected := before.Add(15 * time.Minute)
	assert.WithinDuration(t, expected, *accepted.EstimatedArrival, 5*time.Second)
}

func TestAccept_UnknownEmergency(t *testing.T) {
	env := newTestEnv(t)
	partnerID := env.addPartner(t, "Driver")

	_, err := env.service.Accept(context.Background(), primitive.NewObjectID(), partnerID)
	assert.ErrorIs(t, err, services.ErrEmergencyNotFound)
}

func TestAccept_UnregisteredPartner(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())

	_, err := env.service.Accept(context.Background(), emergency.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, services.ErrPartnerNotFound)
}

func TestLifecycle_FullProgression(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())
	partnerID := env.addPartner(t, "Ravi Kumar")

	accepted, err := env.service.Accept(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)
	trackingCode := accepted.TrackingCode

	lat, lng := 12.9616, 77.5846
	enRoute, err := env.service.MarkEnRoute(context.Background(), emergency.ID, partnerID, &models.TransitionRequest{
		Latitude:  &lat,
		Longitude: &lng,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusEnRoute, enRoute.Status)
	require.NotNil(t, enRoute.AmbulanceLocation)
	assert.Equal(t, 12.9616, enRoute.AmbulanceLocation.Latitude())

	arrived, err := env.service.MarkArrived(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusArrived, arrived.Status)
	require.NotNil(t, arrived.ActualArrival)

	completed, err := env.service.Complete(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusCompleted, completed.Status)

	// Assignment never changes after acceptance
	assert.Equal(t, trackingCode, completed.TrackingCode)
	require.NotNil(t, completed.PartnerID)
	assert.Equal(t, partnerID, *completed.PartnerID)
	assert.Equal(t, "Ravi Kumar", completed.DriverName)
}

func TestLifecycle_NoStageSkipping(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())
	partnerID := env.addPartner(t, "Driver")

	_, err := env.service.Accept(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)

	_, err = env.service.MarkArrived(context.Background(), emergency.ID, partnerID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = env.service.Complete(context.Background(), emergency.ID, partnerID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestLifecycle_OnlyAssignedPartnerProgresses(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())
	winner := env.addPartner(t, "Winner")
	other := env.addPartner(t, "Other")

	_, err := env.service.Accept(context.Background(), emergency.ID, winner)
	require.NoError(t, err)

	_, err = env.service.MarkEnRoute(context.Background(), emergency.ID, other, nil)
	assert.ErrorIs(t, err, services.ErrNotAssigned)

	// The real partner is unaffected
	_, err = env.service.MarkEnRoute(context.Background(), emergency.ID, winner, nil)
	assert.NoError(t, err)
}

func TestMarkEnRoute_ProceedsWithoutPosition(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())
	partnerID := env.addPartner(t, "Driver")

	_, err := env.service.Accept(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)

	enRoute, err := env.service.MarkEnRoute(context.Background(), emergency.ID, partnerID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusEnRoute, enRoute.Status)
	assert.Nil(t, enRoute.AmbulanceLocation)
}

func TestCancelSOS(t *testing.T) {
	env := newTestEnv(t)
	userID := primitive.NewObjectID()
	emergency := env.initiate(t, userID)

	err := env.service.CancelSOS(context.Background(), emergency.ID, userID, "false alarm")
	require.NoError(t, err)

	cancelled, err := env.service.GetEmergency(context.Background(), emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusCancelled, cancelled.Status)
	assert.Equal(t, "false alarm", cancelled.CancelReason)
}

func TestCancelSOS_RejectedAfterAcceptance(t *testing.T) {
	env := newTestEnv(t)
	userID := primitive.NewObjectID()
	emergency := env.initiate(t, userID)
	partnerID := env.addPartner(t, "Driver")

	_, err := env.service.Accept(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)

	err = env.service.CancelSOS(context.Background(), emergency.ID, userID, "changed my mind")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	current, err := env.service.GetEmergency(context.Background(), emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusAccepted, current.Status)
}

func TestCancelSOS_OnlyOwner(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())

	err := env.service.CancelSOS(context.Background(), emergency.ID, primitive.NewObjectID(), "not mine")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestDismiss_IsLocalToPartner(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())
	partnerA := env.addPartner(t, "A")
	partnerB := env.addPartner(t, "B")

	err := env.service.Dismiss(context.Background(), emergency.ID, partnerA)
	require.NoError(t, err)

	feedA, err := env.service.GetOpenEmergencies(context.Background(), partnerA)
	require.NoError(t, err)
	assert.Empty(t, feedA)

	feedB, err := env.service.GetOpenEmergencies(context.Background(), partnerB)
	require.NoError(t, err)
	require.Len(t, feedB, 1)
	assert.Equal(t, emergency.ID, feedB[0].ID)

	// The shared record is untouched and still claimable
	current, err := env.service.GetEmergency(context.Background(), emergency.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusInitiated, current.Status)

	_, err = env.service.Accept(context.Background(), emergency.ID, partnerB)
	assert.NoError(t, err)
}

func TestGetActiveCases_GroupedByStatus(t *testing.T) {
	env := newTestEnv(t)
	partnerID := env.addPartner(t, "Driver")

	first := env.initiate(t, primitive.NewObjectID())
	second := env.initiate(t, primitive.NewObjectID())

	_, err := env.service.Accept(context.Background(), first.ID, partnerID)
	require.NoError(t, err)
	_, err = env.service.Accept(context.Background(), second.ID, partnerID)
	require.NoError(t, err)
	_, err = env.service.MarkEnRoute(context.Background(), second.ID, partnerID, nil)
	require.NoError(t, err)

	cases, err := env.service.GetActiveCases(context.Background(), partnerID)
	require.NoError(t, err)
	require.Len(t, cases.Accepted, 1)
	require.Len(t, cases.EnRoute, 1)
	assert.Empty(t, cases.Arrived)
	assert.Equal(t, first.ID, cases.Accepted[0].ID)
	assert.Equal(t, second.ID, cases.EnRoute[0].ID)
}

func TestExpireStale_SparesAcceptedEvents(t *testing.T) {
	env := newTestEnv(t)
	partnerID := env.addPartner(t, "Driver")

	stale := env.initiate(t, primitive.NewObjectID())
	claimed := env.initiate(t, primitive.NewObjectID())
	fresh := env.initiate(t, primitive.NewObjectID())

	_, err := env.service.Accept(context.Background(), claimed.ID, partnerID)
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	env.emergencies.backdate(stale.ID, old)
	env.emergencies.backdate(claimed.ID, old)

	expired, err := env.service.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	staleNow, _ := env.service.GetEmergency(context.Background(), stale.ID)
	assert.Equal(t, models.EmergencyStatusCancelled, staleNow.Status)

	claimedNow, _ := env.service.GetEmergency(context.Background(), claimed.ID)
	assert.Equal(t, models.EmergencyStatusAccepted, claimedNow.Status)

	freshNow, _ := env.service.GetEmergency(context.Background(), fresh.ID)
	assert.Equal(t, models.EmergencyStatusInitiated, freshNow.Status)
}

func TestEstimateArrival_HaversineFallback(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())

	// Vehicle about 1.1 km due south of the patient
	lat, lng := 12.9616, 77.5946
	eta, err := env.service.EstimateArrival(context.Background(), emergency.ID, &lat, &lng)
	require.NoError(t, err)

	assert.Equal(t, "haversine", eta.Source)
	assert.InDelta(t, 1.11, eta.RawDistance, 0.05)
	assert.GreaterOrEqual(t, eta.ETAMinutes, 1)
	assert.LessOrEqual(t, eta.ETAMinutes, 5)
}

func TestEstimateArrival_NoPositionAvailable(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())

	_, err := env.service.EstimateArrival(context.Background(), emergency.ID, nil, nil)
	assert.ErrorIs(t, err, services.ErrLocationUnavailable)
}

func TestEstimateArrival_UsesLastKnownAmbulancePosition(t *testing.T) {
	env := newTestEnv(t)
	emergency := env.initiate(t, primitive.NewObjectID())
	partnerID := env.addPartner(t, "Driver")

	_, err := env.service.Accept(context.Background(), emergency.ID, partnerID)
	require.NoError(t, err)

	lat, lng := 12.9616, 77.5946
	_, err = env.service.MarkEnRoute(context.Background(), emergency.ID, partnerID, &models.TransitionRequest{
		Latitude:  &lat,
		Longitude: &lng,
	})
	require.NoError(t, err)

	eta, err := env.service.EstimateArrival(context.Background(), emergency.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "haversine", eta.Source)
	assert.InDelta(t, 1.11, eta.RawDistance, 0.05)
}
