package workers

import (
	"context"
	"time"

	"github.com/tdesai7/secondbrain-backend/internal/logger"
	"github.com/tdesai7/secondbrain-backend/internal/services"
)

// BinReaper permanently deletes content whose soft-delete has exceeded the
// retention window. Each run re-evaluates the predicate from scratch, so a
// crash mid-run loses nothing.
type BinReaper struct {
	log      *logger.Logger
	content  services.ContentService
	interval time.Duration
}

func NewBinReaper(baseLog *logger.Logger, content services.ContentService, interval time.Duration) *BinReaper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &BinReaper{
		log:      baseLog.With("worker", "BinReaper"),
		content:  content,
		interval: interval,
	}
}

func (r *BinReaper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.log.Info("Bin reaper stopped")
				return
			case <-ticker.C:
				r.RunOnce(ctx, time.Now())
			}
		}
	}()
}

func (r *BinReaper) RunOnce(ctx context.Context, now time.Time) {
	n, err := r.content.PurgeExpired(ctx, now)
	if err != nil {
		r.log.Warn("Bin purge failed", "error", err)
		return
	}
	if n > 0 {
		r.log.Info("Purged expired content from bin", "count", n)
	}
}
