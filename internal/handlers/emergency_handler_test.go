package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"healthmate/internal/models"
	"healthmate/internal/services"
	"healthmate/internal/utils"
)

// Scriptable stand-in for the emergency service; only the hooks a test sets
// are callable.
type stubEmergencyService struct {
	services.EmergencyService

	initiateSOS func(userID primitive.ObjectID, request *models.SOSRequest) (*models.Emergency, bool, error)
	accept      func(emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error)
	markEnRoute func(emergencyID, partnerUserID primitive.ObjectID, request *models.TransitionRequest) (*models.Emergency, error)
	estimate    func(emergencyID primitive.ObjectID, lat, lng *float64) (*models.ETAResponse, error)
}

func (s *stubEmergencyService) InitiateSOS(ctx context.Context, userID primitive.ObjectID, request *models.SOSRequest) (*models.Emergency, bool, error) {
	return s.initiateSOS(userID, request)
}

func (s *stubEmergencyService) Accept(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error) {
	return s.accept(emergencyID, partnerUserID)
}

func (s *stubEmergencyService) MarkEnRoute(ctx context.Context, emergencyID, partnerUserID primitive.ObjectID, request *models.TransitionRequest) (*models.Emergency, error) {
	return s.markEnRoute(emergencyID, partnerUserID, request)
}

func (s *stubEmergencyService) EstimateArrival(ctx context.Context, emergencyID primitive.ObjectID, lat, lng *float64) (*models.ETAResponse, error) {
	return s.estimate(emergencyID, lat, lng)
}

func performRequest(t *testing.T, method, path string, body interface{}, userID primitive.ObjectID, register func(*gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_type", "partner")
	})
	register(router)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var response utils.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func TestInitiateSOS_Created(t *testing.T) {
	userID := primitive.NewObjectID()
	stub := &stubEmergencyService{
		initiateSOS: func(gotUserID primitive.ObjectID, request *models.SOSRequest) (*models.Emergency, bool, error) {
			assert.Equal(t, userID, gotUserID)
			return &models.Emergency{ID: primitive.NewObjectID(), UserID: gotUserID, Status: models.EmergencyStatusInitiated}, true, nil
		},
	}
	handler := NewEmergencyHandler(stub, nil)

	recorder := performRequest(t, http.MethodPost, "/sos", map[string]interface{}{
		"latitude":  12.9716,
		"longitude": 77.5946,
		"symptoms":  "chest pain",
	}, userID, func(r *gin.Engine) {
		r.POST("/sos", handler.InitiateSOS)
	})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	response := decodeResponse(t, recorder)
	assert.Equal(t, utils.StatusSuccess, response.Status)
}

func TestInitiateSOS_DedupReturnsOK(t *testing.T) {
	stub := &stubEmergencyService{
		initiateSOS: func(userID primitive.ObjectID, request *models.SOSRequest) (*models.Emergency, bool, error) {
			return &models.Emergency{ID: primitive.NewObjectID(), Status: models.EmergencyStatusInitiated}, false, nil
		},
	}
	handler := NewEmergencyHandler(stub, nil)

	recorder := performRequest(t, http.MethodPost, "/sos", map[string]interface{}{
		"latitude":  12.9716,
		"longitude": 77.5946,
	}, primitive.NewObjectID(), func(r *gin.Engine) {
		r.POST("/sos", handler.InitiateSOS)
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestInitiateSOS_MissingLocation(t *testing.T) {
	handler := NewEmergencyHandler(&stubEmergencyService{}, nil)

	recorder := performRequest(t, http.MethodPost, "/sos", map[string]interface{}{
		"symptoms": "chest pain",
	}, primitive.NewObjectID(), func(r *gin.Engine) {
		r.POST("/sos", handler.InitiateSOS)
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	response := decodeResponse(t, recorder)
	require.NotNil(t, response.Error)
	assert.Equal(t, "LOCATION_UNAVAILABLE", response.Error.Code)
}

func TestAccept_LostRaceMapsToConflict(t *testing.T) {
	stub := &stubEmergencyService{
		accept: func(emergencyID, partnerUserID primitive.ObjectID) (*models.Emergency, error) {
			return nil, services.ErrLostRace
		},
	}
	handler := NewPartnerHandler(stub, nil)
	emergencyID := primitive.NewObjectID()

	recorder := performRequest(t, http.MethodPost, "/emergencies/"+emergencyID.Hex()+"/accept", nil, primitive.NewObjectID(), func(r *gin.Engine) {
		r.POST("/emergencies/:id/accept", handler.Accept)
	})

	assert.Equal(t, http.StatusConflict, recorder.Code)
	response := decodeResponse(t, recorder)
	require.NotNil(t, response.Error)
	assert.Equal(t, "ALREADY_TAKEN", response.Error.Code)
}

func TestAccept_InvalidIDRejected(t *testing.T) {
	handler := NewPartnerHandler(&stubEmergencyService{}, nil)

	recorder := performRequest(t, http.MethodPost, "/emergencies/not-an-id/accept", nil, primitive.NewObjectID(), func(r *gin.Engine) {
		r.POST("/emergencies/:id/accept", handler.Accept)
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMarkEnRoute_NotAssignedMapsToForbidden(t *testing.T) {
	stub := &stubEmergencyService{
		markEnRoute: func(emergencyID, partnerUserID primitive.ObjectID, request *models.TransitionRequest) (*models.Emergency, error) {
			return nil, services.ErrNotAssigned
		},
	}
	handler := NewPartnerHandler(stub, nil)
	emergencyID := primitive.NewObjectID()

	recorder := performRequest(t, http.MethodPost, "/emergencies/"+emergencyID.Hex()+"/en-route", nil, primitive.NewObjectID(), func(r *gin.Engine) {
		r.POST("/emergencies/:id/en-route", handler.MarkEnRoute)
	})

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	response := decodeResponse(t, recorder)
	require.NotNil(t, response.Error)
	assert.Equal(t, "NOT_ASSIGNED", response.Error.Code)
}

func TestGetETA_ParsesQueryCoordinates(t *testing.T) {
	var gotLat, gotLng *float64
	stub := &stubEmergencyService{
		estimate: func(emergencyID primitive.ObjectID, lat, lng *float64) (*models.ETAResponse, error) {
			gotLat, gotLng = lat, lng
			return &models.ETAResponse{DistanceKM: "1.11", ETAMinutes: 3, Source: "haversine"}, nil
		},
	}
	handler := NewEmergencyHandler(stub, nil)
	emergencyID := primitive.NewObjectID()

	recorder := performRequest(t, http.MethodGet, "/emergencies/"+emergencyID.Hex()+"/eta?lat=12.9616&lng=77.5946", nil, primitive.NewObjectID(), func(r *gin.Engine) {
		r.GET("/emergencies/:id/eta", handler.GetETA)
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, gotLat)
	require.NotNil(t, gotLng)
	assert.Equal(t, 12.9616, *gotLat)
	assert.Equal(t, 77.5946, *gotLng)
}
