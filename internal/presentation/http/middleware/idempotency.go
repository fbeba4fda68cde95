package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/machinetrade/pos-api/internal/domain/entity"
	"github.com/machinetrade/pos-api/internal/domain/repository"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/response"
	"github.com/machinetrade/pos-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// DefaultIdempotencyTTL is used when the config leaves TTL unset
	DefaultIdempotencyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	TTL  time.Duration
	// Required rejects requests without a key
	Required bool
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated key. The key is
// reserved before the handler runs so concurrent retries cannot both
// execute. Responses below 500 are kept; server failures release the key.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if cfg.Required {
				response.BadRequest(c, "Idempotency-Key header is required for this request")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if len(key) > 255 {
			response.BadRequest(c, "Idempotency-Key must be at most 255 characters")
			c.Abort()
			return
		}

		userID := GetUserID(c)
		if userID == "" {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Failed to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		hash := hex.EncodeToString(sum[:])

		ctx := c.Request.Context()
		existing, err := cfg.Repo.GetByKey(ctx, key, userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if existing != nil {
			replay(c, existing, hash)
			return
		}

		reservation := &entity.IdempotencyKey{
			Key:         key,
			UserID:      userID,
			Endpoint:    c.Request.Method + " " + c.FullPath(),
			RequestHash: hash,
			ExpiresAt:   time.Now().Add(ttl),
		}
		if err := cfg.Repo.Create(ctx, reservation); err != nil {
			if apperror.KindOf(err) == apperror.KindConflict {
				response.Error(c, apperror.NewAppError(http.StatusConflict, "A request with this Idempotency-Key is already in progress"))
			} else {
				response.Error(c, err)
			}
			c.Abort()
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// the request context may already be cancelled
		storeCtx := context.WithoutCancel(ctx)
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			if err := cfg.Repo.Delete(storeCtx, key, userID); err != nil {
				log.Printf("[idempotency] WARN: failed to release key %s: %v", key, err)
			}
			return
		}
		if err := cfg.Repo.Complete(storeCtx, key, userID, status, blw.body.String()); err != nil {
			log.Printf("[idempotency] WARN: failed to store response for key %s: %v", key, err)
		}
	}
}

func replay(c *gin.Context, existing *entity.IdempotencyKey, hash string) {
	defer c.Abort()

	if existing.RequestHash != "" && existing.RequestHash != hash {
		response.Error(c, apperror.NewFieldValidationError(IdempotencyKeyHeader, "key was already used with a different request body"))
		return
	}
	if existing.IsPending() {
		response.Error(c, apperror.NewAppError(http.StatusConflict, "A request with this Idempotency-Key is already in progress"))
		return
	}
	c.Header("X-Idempotency-Replayed", "true")
	c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
}
