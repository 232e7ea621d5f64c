package service

import (
	"context"
	"time"
)

const janitorInterval = time.Hour

// StartTokenJanitor runs a background loop that removes expired auth
// tokens every hour. It blocks until the context is cancelled, so it
// should be launched in a separate goroutine.
func (s *Service) StartTokenJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	s.logger.Info("Token janitor started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Token janitor stopped")
			return
		case <-ticker.C:
			removed, err := s.Tokens.DeleteExpired(ctx)
			if err != nil {
				s.logger.Errorf("Failed to delete expired tokens: %v", err)
				continue
			}
			if removed > 0 {
				s.logger.Infof("Removed %d expired auth tokens", removed)
			}
		}
	}
}
