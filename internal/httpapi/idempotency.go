package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// withIdempotency выполняет handler под защитой Idempotency-Key: повторный
// запрос с тем же ключом и телом получает закэшированный ответ, конкурентный
// дубль — 409, тот же ключ с другим телом — 409.
func (s *Server) withIdempotency(c *gin.Context, method string, body []byte, handler func() (int, any)) {
	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	if s.idem == nil || key == "" {
		status, payload := handler()
		c.JSON(status, payload)
		return
	}

	reqHash := buildIdempotencyRequestHash(method, body)

	record, err := s.idem.CreateProcessing(key, reqHash, time.Now().UTC().Add(idempotencyTTL))
	if err != nil {
		s.replayIdempotency(c, key, record, err)
		return
	}

	status, payload := handler()
	encoded, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		s.logger.WithError(marshalErr).WithField("idempotency_key", key).
			Warn("failed to encode idempotent response")
		c.JSON(status, payload)
		return
	}

	if status >= http.StatusBadRequest {
		if cacheErr := s.idem.MarkFailed(key, encoded, status); cacheErr != nil {
			s.logger.WithError(cacheErr).WithField("idempotency_key", key).
				Warn("failed to store idempotent failure response")
		}
	} else {
		if cacheErr := s.idem.MarkDone(key, encoded, status); cacheErr != nil {
			s.logger.WithError(cacheErr).WithField("idempotency_key", key).
				Warn("failed to store idempotent success response")
		}
	}

	c.Data(status, "application/json; charset=utf-8", encoded)
}

func (s *Server) replayIdempotency(c *gin.Context, key string, record domain.IdempotencyRecord, createErr error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		c.JSON(http.StatusConflict, errorResponse("idempotency key is already used with different request payload"))
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if len(record.ResponseBody) == 0 {
				c.JSON(http.StatusInternalServerError, errorResponse("idempotency cache is empty"))
				return
			}
			c.Data(record.HTTPStatus, "application/json; charset=utf-8", record.ResponseBody)
		case domain.IdempotencyStatusProcessing:
			c.JSON(http.StatusConflict, errorResponse("request with the same idempotency key is already processing"))
		default:
			c.JSON(http.StatusInternalServerError, errorResponse("unknown idempotency record status"))
		}
	default:
		s.logger.WithError(createErr).WithField("idempotency_key", key).
			Warn("failed to create idempotency record")
		c.JSON(http.StatusInternalServerError, errorResponse("failed to initialize idempotency request"))
	}
}

func buildIdempotencyRequestHash(method string, body []byte) string {
	sum := sha256.Sum256(append([]byte(method+"\n"), body...))
	return hex.EncodeToString(sum[:])
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func bindJSON(body []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	return decoder.Decode(target)
}
