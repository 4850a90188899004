package service

import (
	"context"
	"log/slog"
	"time"
)

// SweepService periodically expires pending invitations whose tokens lapsed
// unused, so the stored status catches up with the tokens' fixed lifetime.
type SweepService struct {
	Invitations *InvitationService
	Logger      *slog.Logger
	Interval    time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweepService creates a sweep worker with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewSweepService(inv *InvitationService, logger *slog.Logger, interval time.Duration) *SweepService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &SweepService{
		Invitations: inv,
		Logger:      logger,
		Interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut down.
func (s *SweepService) Start() {
	go s.run()
	s.Logger.Info("expiry sweep started", "interval", s.Interval)
}

// Stop gracefully shuts down the worker, blocking until any in-progress
// sweep finishes.
func (s *SweepService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("expiry sweep stopped")
}

func (s *SweepService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup to clear anything that lapsed while the
	// service was down.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *SweepService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	n, err := s.Invitations.SweepExpired(ctx)
	if err != nil {
		s.Logger.Error("expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Info("expired lapsed invitations", "count", n)
	}
}
