package marketplace

import (
	"context"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/pkg/logger"
)

// RunExpirySweeper calls CloseExpiredBidding every interval until ctx is
// cancelled. Sweep errors are logged and the loop carries on.
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.CloseExpiredBidding(ctx)
			if err != nil {
				logger.Error(ctx, "expiry sweep failed", "closed", n, "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "expired bidding closed", "count", n)
			}
		}
	}
}
