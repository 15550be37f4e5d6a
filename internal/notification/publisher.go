// Package notification publishes booking status events to interested
// subscribers. Delivery is fire-and-forget: publishing failures are logged
// and never surfaced to the caller.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zivadmn8866/ziva-oneroof/internal/logger"
	"github.com/zivadmn8866/ziva-oneroof/internal/metrics"
)

const queueKey = "booking_events"

type BookingEvent struct {
	BookingID int       `json:"booking_id"`
	NewStatus string    `json:"new_status"`
	Created   time.Time `json:"created"`
}

type Publisher struct {
	redis *redis.Client
}

func New(redisAddr string) *Publisher {
	return &Publisher{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
	}
}

// NewWithClient exists for tests.
func NewWithClient(client *redis.Client) *Publisher {
	return &Publisher{redis: client}
}

func (p *Publisher) PublishBookingStatus(ctx context.Context, bookingID int, newStatus string) {
	if p == nil || p.redis == nil {
		return
	}

	event := BookingEvent{
		BookingID: bookingID,
		NewStatus: newStatus,
		Created:   time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("Failed to marshal booking event: %v", err)
		metrics.RecordNotification("error")
		return
	}

	if err := p.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to publish booking event for booking %d: %v", bookingID, err)
		metrics.RecordNotification("error")
		return
	}

	metrics.RecordNotification("published")
}

func (p *Publisher) Close() error {
	if p == nil || p.redis == nil {
		return nil
	}
	return p.redis.Close()
}
