package services

import (
	"context"

	"healthmate/internal/models"
	"healthmate/internal/repositories/interfaces"
	"healthmate/internal/validators"
	"healthmate/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.AmbulancePartner, error)
	CreateProfile(ctx context.Context, partner *models.AmbulancePartner) error
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates map[string]interface{}) (*models.AmbulancePartner, error)
	SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool) error
}

type partnerService struct {
	partnerRepo interfaces.PartnerRepository
	logger      *logger.Logger
}

func NewPartnerService(partnerRepo interfaces.PartnerRepository, logger *logger.Logger) PartnerService {
	return &partnerService{
		partnerRepo: partnerRepo,
		logger:      logger,
	}
}

func (s *partnerService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.AmbulancePartner, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrPartnerNotFound
	}
	return partner, nil
}

func (s *partnerService) CreateProfile(ctx context.Context, partner *models.AmbulancePartner) error {
	if err := validators.ValidatePartner(partner); err != nil {
		return err
	}
	return s.partnerRepo.Create(ctx, partner)
}

func (s *partnerService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates map[string]interface{}) (*models.AmbulancePartner, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, ErrPartnerNotFound
	}

	if err := s.partnerRepo.Update(ctx, partner.ID, updates); err != nil {
		return nil, err
	}

	return s.partnerRepo.GetByID(ctx, partner.ID)
}

func (s *partnerService) SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool) error {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return ErrPartnerNotFound
	}
	return s.partnerRepo.SetAvailability(ctx, partner.ID, available)
}
