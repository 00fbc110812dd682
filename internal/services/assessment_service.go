package services

import (
	"context"
	"fmt"
	"strings"

	"healthmate/pkg/ai"
	"healthmate/pkg/logger"
)

type AssessmentService interface {
	AssessSymptoms(ctx context.Context, symptoms string) (string, error)
}

type assessmentService struct {
	client *ai.Client
	logger *logger.Logger
}

func NewAssessmentService(client *ai.Client, logger *logger.Logger) AssessmentService {
	return &assessmentService{
		client: client,
		logger: logger,
	}
}

func (s *assessmentService) AssessSymptoms(ctx context.Context, symptoms string) (string, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return "", fmt.Errorf("symptoms description is required")
	}
	if s.client == nil {
		return "", fmt.Errorf("symptom assessment is not configured")
	}

	answer, err := s.client.AssessSymptoms(ctx, symptoms)
	if err != nil {
		s.logger.WithError(err).Warn("Symptom assessment request failed")
		return "", err
	}

	return answer, nil
}
