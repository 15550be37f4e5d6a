package payment

import (
	"context"
	"time"

	"github.com/zivadmn8866/ziva-oneroof/internal/logger"
)

// Janitor periodically deletes expired pending intents.
type Janitor struct {
	repo     Repository
	interval time.Duration
}

func NewJanitor(repo Repository, interval time.Duration) *Janitor {
	return &Janitor{repo: repo, interval: interval}
}

// Start runs the cleanup loop until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.repo.DeleteExpired(ctx)
			if err != nil {
				logger.Errorf("Failed to delete expired payment intents: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("Deleted %d expired payment intents", n)
			}
		}
	}
}
