// Package notify queues user notifications in Redis and delivers them from a
// background worker.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"carpool/internal/logger"
	"carpool/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"
	maxTries  = 3
)

type Notification struct {
	UserID  int            `json:"user_id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Tries   int            `json:"tries"`
	Created time.Time      `json:"created"`
}

type Service struct {
	redis      *redis.Client
	dispatcher Dispatcher
	retryDelay time.Duration
}

func New(rdb *redis.Client, d Dispatcher) *Service {
	return &Service{redis: rdb, dispatcher: d, retryDelay: 5 * time.Second}
}

// Notify queues a notification. Delivery problems are logged and counted but
// never reach the caller.
func (s *Service) Notify(ctx context.Context, userID int, kind, title, message string, data map[string]any) {
	n := Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    data,
		Created: time.Now(),
	}

	payload, err := json.Marshal(n)
	if err != nil {
		logger.Error("failed to marshal notification", "type", kind, "user_id", userID, "error", err)
		metrics.RecordNotification(kind, "error")
		return
	}

	// The request may already be finished; queueing must not depend on it.
	if err := s.redis.LPush(context.WithoutCancel(ctx), queueKey, payload).Err(); err != nil {
		logger.Error("failed to queue notification", "type", kind, "user_id", userID, "error", err)
		metrics.RecordNotification(kind, "error")
		return
	}
	metrics.RecordNotification(kind, "queued")
}

// Start runs the delivery loop until ctx is done.
func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var n Notification
	if err := json.Unmarshal([]byte(result[1]), &n); err != nil {
		logger.Error("bad notification payload", "error", err)
		return
	}

	n.Tries++
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		logger.Warn("notification delivery failed", "type", n.Type, "user_id", n.UserID, "attempt", n.Tries, "error", err)

		if n.Tries < maxTries {
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
			s.requeue(n)
		} else {
			s.saveFailed(n, err)
		}
		return
	}

	metrics.RecordNotification(n.Type, "sent")
}

func (s *Service) requeue(n Notification) {
	data, _ := json.Marshal(n)
	if err := s.redis.LPush(context.Background(), queueKey, data).Err(); err != nil {
		logger.Error("failed to requeue notification", "type", n.Type, "user_id", n.UserID, "error", err)
	}
}

func (s *Service) saveFailed(n Notification, err error) {
	failed := map[string]any{
		"notification": n,
		"error":        err.Error(),
		"time":         time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	metrics.RecordNotification(n.Type, "failed")
	logger.Error("notification moved to failed queue", "type", n.Type, "user_id", n.UserID, "attempts", n.Tries)
}

// QueueLength also refreshes the queue gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
