package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/config"
	"github.com/mamadbah2/farmhub/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// DigestBuilder produces the periodic storage digest.
type DigestBuilder interface {
	StorageDigest(ctx context.Context) (string, error)
}

// Sender delivers a message to an operator.
type Sender interface {
	Send(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	digest    DigestBuilder
	sender    Sender
	schedule  string
	recipient string
	logger    *zap.Logger
}

// NewScheduler creates a scheduler running jobs in the configured timezone.
func NewScheduler(cfg config.Config, digest DigestBuilder, sender Sender, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		digest:    digest,
		sender:    sender,
		schedule:  cfg.Reporting.DigestSchedule,
		recipient: cfg.WhatsApp.OpsNumber,
		logger:    logger,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	if s.recipient == "" {
		s.logger.Warn("no operations number configured, storage digest disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sendStorageDigest); err != nil {
		return fmt.Errorf("schedule storage digest %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("digest_schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendStorageDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunStorageDigest(ctx); err != nil {
		s.logger.Error("storage digest failed", zap.Error(err))
		return
	}
	s.logger.Info("storage digest sent")
}

// RunStorageDigest builds the digest and sends it to the operations number.
func (s *Scheduler) RunStorageDigest(ctx context.Context) error {
	report, err := s.digest.StorageDigest(ctx)
	if err != nil {
		return fmt.Errorf("build storage digest: %w", err)
	}

	req := models.OutboundMessageRequest{
		To:      s.recipient,
		Message: report,
	}
	if err := s.sender.Send(ctx, req); err != nil {
		return fmt.Errorf("send storage digest: %w", err)
	}
	return nil
}
