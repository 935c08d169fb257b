package app

import (
	"context"
	"time"

	pkgcron "github.com/chirp-social/core/internal/pkg/cron"
	"github.com/chirp-social/core/internal/pkg/ledger"
	"go.uber.org/zap"
)

func registerCronJobs(sched *pkgcron.Scheduler, led ledger.Ledger, logger *zap.Logger) {
	sched.Register(pkgcron.Job{
		Name:        "purge_expired_refresh_tokens",
		Description: "delete refresh token rows past their expiry",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			purged, err := led.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if purged > 0 {
				logger.Info("purged expired refresh tokens", zap.Int64("count", purged))
			}
			return nil
		},
	})
}
