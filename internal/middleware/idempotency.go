package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/pkg/utils"
	"github.com/redis/go-redis/v9"
)

// IdempotencyHeader is the request header clients set to retry a write safely.
// Booking and report submissions are the main users: a retried POST with the
// same key replays the stored response instead of reserving seats twice.
const IdempotencyHeader = "Idempotency-Key"

const (
	idempotencyTTL    = 24 * time.Hour
	idempotencyPrefix = "idempotency:"
	idempotencyLock   = 30 * time.Second
)

type IdempotencyMiddleware struct {
	redis *redis.Client
}

type storedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

func NewIdempotencyMiddleware(redisClient *redis.Client) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{redis: redisClient}
}

// captureWriter records the response so it can be replayed on retry.
type captureWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.statusCode = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}

func (m *IdempotencyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			utils.BadRequest(w, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		bodyHash := hashBody(bodyBytes)
		cacheKey := idempotencyPrefix + key
		ctx := r.Context()

		if stored, err := m.getStored(ctx, cacheKey); err == nil {
			// Same key with a different body is a client bug, not a retry
			if stored.BodyHash != bodyHash {
				utils.Error(w, apperrors.Conflict("idempotency key already used with a different request"))
				return
			}

			if stored.ContentType != "" {
				w.Header().Set("Content-Type", stored.ContentType)
			}
			w.WriteHeader(stored.StatusCode)
			w.Write(stored.Body)
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := m.redis.SetNX(ctx, lockKey, "1", idempotencyLock).Result()
		if err != nil || !locked {
			utils.Error(w, apperrors.Conflict("a request with this idempotency key is already being processed"))
			return
		}
		defer m.redis.Del(ctx, lockKey)

		cw := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(cw, r)

		// Only replay successes; failed writes should be retried for real
		if cw.statusCode >= 200 && cw.statusCode < 300 {
			stored := storedResponse{
				StatusCode:  cw.statusCode,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        cw.body.Bytes(),
				BodyHash:    bodyHash,
			}

			data, _ := json.Marshal(stored)
			m.redis.Set(ctx, cacheKey, data, idempotencyTTL)
		}
	})
}

func (m *IdempotencyMiddleware) getStored(ctx context.Context, key string) (*storedResponse, error) {
	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

func hashBody(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
