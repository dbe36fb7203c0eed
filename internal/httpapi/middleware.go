package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

const (
	headerSessionID     = "X-Session-Id"
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	ctxKeySessionID = "session_id"
	ctxKeyUser      = "user"
	ctxKeyToken     = "token"
)

// sessionMiddleware привязывает запрос к сессионной корзине. Клиент без
// X-Session-Id получает новый идентификатор в заголовке ответа.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(headerSessionID))
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		c.Set(ctxKeySessionID, sessionID)
		c.Header(headerSessionID, sessionID)
		c.Next()
	}
}

// authRequired отклоняет запросы без валидного bearer-токена и кладёт
// пользователя в контекст запроса.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("authorization token is required"))
			return
		}

		user, err := s.auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(domain.ErrTokenInvalid.Error()))
			return
		}

		c.Set(ctxKeyUser, user)
		c.Set(ctxKeyToken, token)
		c.Next()
	}
}

// requestMetrics считает запросы и их длительность по маршруту.
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.httpMetrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		s.httpMetrics.RequestStarted()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.httpMetrics.RequestFinished(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// requestLogger логирует завершённые запросы.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := s.logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Debug("request handled")
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader(headerAuthorization))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxKeySessionID)
}

func currentUser(c *gin.Context) (domain.User, bool) {
	value, ok := c.Get(ctxKeyUser)
	if !ok {
		return domain.User{}, false
	}
	user, ok := value.(domain.User)
	return user, ok
}
