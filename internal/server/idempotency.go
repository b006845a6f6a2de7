package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"carpool/internal/api"
	"carpool/internal/auth"
	"carpool/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	idempotencyPrefix = "idempotency:"
	idempotencyLock   = 30 * time.Second
)

// KeyFunc derives the idempotency key of a request. An empty key disables
// caching for that request.
type KeyFunc func(c *gin.Context, body []byte) string

// HeaderKey scopes the Idempotency-Key header to the caller so two users
// cannot replay each other's responses.
func HeaderKey(c *gin.Context, body []byte) string {
	key := c.GetHeader(IdempotencyHeader)
	if key == "" {
		return ""
	}
	if userID, ok := auth.GetUserID(c); ok {
		return fmt.Sprintf("u%d:%s", userID, key)
	}
	return key
}

// WebhookKey falls back to the provider's transaction id and status when the
// callback carries no Idempotency-Key.
func WebhookKey(c *gin.Context, body []byte) string {
	if key := c.GetHeader(IdempotencyHeader); key != "" {
		return "webhook:" + key
	}
	var ev struct {
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(body, &ev); err != nil || ev.TransactionID == "" {
		return ""
	}
	return "webhook:" + ev.TransactionID + ":" + ev.Status
}

type Idempotency struct {
	redis *redis.Client
}

type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{redis: rdb}
}

type bodyWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Handler replays the stored 2xx response of a repeated request. A reused
// key with a different body is rejected with 409. Redis outages let requests
// through; the services are idempotent on their own.
func (m *Idempotency) Handler(keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.redis == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			api.BadRequest(c, "failed to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := keyFn(c, body)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyPrefix + key
		bodyHash := hashBody(body)

		cached, err := m.cached(ctx, cacheKey)
		switch {
		case err == nil:
			if cached.BodyHash != bodyHash {
				c.AbortWithStatusJSON(http.StatusConflict, api.ErrorResponse{
					Error:   "idempotency_conflict",
					Message: "idempotency key already used with a different request",
				})
				return
			}
			c.Header("Idempotent-Replay", "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		case !errors.Is(err, redis.Nil):
			logger.Warn("idempotency lookup failed", "key", key, "error", err)
			c.Next()
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := m.redis.SetNX(ctx, lockKey, "1", idempotencyLock).Result()
		if err != nil {
			logger.Warn("idempotency lock failed", "key", key, "error", err)
			c.Next()
			return
		}
		if !locked {
			c.AbortWithStatusJSON(http.StatusConflict, api.ErrorResponse{
				Error:   "request_in_progress",
				Message: "a request with this idempotency key is already being processed",
			})
			return
		}
		defer m.redis.Del(context.WithoutCancel(ctx), lockKey)

		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			return
		}
		data, _ := json.Marshal(cachedResponse{
			StatusCode:  status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
			BodyHash:    bodyHash,
		})
		if err := m.redis.Set(context.WithoutCancel(ctx), cacheKey, data, idempotencyTTL).Err(); err != nil {
			logger.Warn("failed to store idempotent response", "key", key, "error", err)
		}
	}
}

func (m *Idempotency) cached(ctx context.Context, key string) (*cachedResponse, error) {
	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func hashBody(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
