package services

import (
	"context"
	"fmt"

	"healthmate/internal/models"
	"healthmate/internal/repositories/interfaces"
	"healthmate/internal/utils"
	"healthmate/pkg/logger"
	"healthmate/pkg/sms"
)

type NotificationService interface {
	// NotifyEmergencyContacts texts the patient's emergency contacts that an
	// SOS was raised. Best effort: failures are logged, never propagated to
	// the SOS flow.
	NotifyEmergencyContacts(ctx context.Context, emergency *models.Emergency)
}

type notificationService struct {
	smsProvider sms.SMSProvider
	patientRepo interfaces.PatientRepository
	logger      *logger.Logger
}

func NewNotificationService(
	smsProvider sms.SMSProvider,
	patientRepo interfaces.PatientRepository,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		smsProvider: smsProvider,
		patientRepo: patientRepo,
		logger:      logger,
	}
}

func (s *notificationService) NotifyEmergencyContacts(ctx context.Context, emergency *models.Emergency) {
	if s.smsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, utils.SMSTimeout)
	defer cancel()

	patient, err := s.patientRepo.GetByUserID(ctx, emergency.UserID)
	if err != nil {
		s.logger.WithError(err).WithEmergencyID(emergency.ID).Warn("Could not load patient for contact alerts")
		return
	}
	if len(patient.EmergencyContacts) == 0 {
		return
	}

	name := patient.Name
	if name == "" {
		name = "A Health Mate user"
	}

	body := fmt.Sprintf(
		"%s has raised an SOS near (%.4f, %.4f). An ambulance is being dispatched.",
		name, emergency.Location.Latitude(), emergency.Location.Longitude(),
	)

	requests := make([]*sms.SMSRequest, 0, len(patient.EmergencyContacts))
	for _, contact := range patient.EmergencyContacts {
		requests = append(requests, &sms.SMSRequest{
			To:      contact.Phone,
			Message: body,
		})
	}

	responses, err := s.smsProvider.SendBulkSMS(ctx, requests)
	if err != nil {
		s.logger.WithError(err).WithEmergencyID(emergency.ID).Warn("Emergency contact SMS failed")
		return
	}

	for i, resp := range responses {
		if resp.Error != "" {
			s.logger.WithEmergencyID(emergency.ID).
				WithField("to", requests[i].To).
				Warnf("SMS not delivered: %s", resp.Error)
		}
	}
}
