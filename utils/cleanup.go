package utils

import (
	"context"
	"time"

	"github.com/vnkhanh/scl-academy-backend/logger"
)

// Pruner dọn các phiên đã hết hạn, trả về số phiên bị xoá
type Pruner interface {
	Prune(now time.Time) int
}

// StartCleanupJob chạy prune ngay lần đầu rồi lặp theo interval cho tới khi ctx bị huỷ
func StartCleanupJob(ctx context.Context, p Pruner, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	runCleanup(p, log)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCleanup(p, log)
			}
		}
	}()

	log.Info("cleanup job started", "interval", interval.String())
}

func runCleanup(p Pruner, log *logger.Logger) {
	if n := p.Prune(time.Now()); n > 0 {
		log.Info("pruned idle editor sessions", "count", n)
	}
}
