package services

import (
	"context"
	"time"

	"healthmate/internal/config"
	"healthmate/internal/models"
	"healthmate/internal/repositories/interfaces"
	"healthmate/pkg/logger"
	"healthmate/pkg/websocket"

	"github.com/robfig/cron/v3"
)

// DispatchService keeps every connected partner's view current. It tails the
// emergency collection's change feed and fans thin notifications out to the
// ambulances room; clients respond by re-querying, so duplicate or reordered
// notifications are harmless. It also runs the stale-event sweep.
type DispatchService interface {
	Start(ctx context.Context) error
	Stop()
}

type dispatchService struct {
	emergencyRepo    interfaces.EmergencyRepository
	emergencyService EmergencyService
	wsHandler        *websocket.Handler
	config           *config.DispatchConfig
	logger           *logger.Logger
	cron             *cron.Cron
	cancel           context.CancelFunc
}

func NewDispatchService(
	config *config.DispatchConfig,
	emergencyRepo interfaces.EmergencyRepository,
	emergencyService EmergencyService,
	wsHandler *websocket.Handler,
	logger *logger.Logger,
) DispatchService {
	return &dispatchService{
		emergencyRepo:    emergencyRepo,
		emergencyService: emergencyService,
		wsHandler:        wsHandler,
		config:           config,
		logger:           logger,
		cron:             cron.New(),
	}
}

func (s *dispatchService) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.watchLoop(ctx)

	schedule := "* * * * *"
	if s.config != nil && s.config.ExpirySweepSchedule != "" {
		schedule = s.config.ExpirySweepSchedule
	}

	_, err := s.cron.AddFunc(schedule, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.emergencyService.ExpireStale(sweepCtx); err != nil {
			s.logger.WithError(err).Warn("Stale emergency sweep failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Dispatch service started")

	return nil
}

func (s *dispatchService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.cron.Stop()
}

// watchLoop tails the change stream and reopens it on failure. Notifications
// are advisory; missing one only delays a client until its next refetch.
func (s *dispatchService) watchLoop(ctx context.Context) {
	for {
		err := s.emergencyRepo.WatchChanges(ctx, s.onChange)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.WithError(err).Warn("Emergency change stream interrupted, reopening")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (s *dispatchService) onChange(change models.EmergencyChange) {
	if s.wsHandler == nil {
		return
	}
	s.wsHandler.NotifyEmergencyChange(change.EmergencyID, change.Operation)
}
