package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coffeeshop/internal/authorization"
	obscontext "github.com/smallbiznis/coffeeshop/internal/observability/context"
	"github.com/smallbiznis/coffeeshop/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextAuthTypeKey = "auth_type"

	actorTypeAPIKey = "api_key"
	actorIDStatic   = "static"

	bearerPrefix = "Bearer "

	rejectMissing       = "missing"
	rejectMismatch      = "mismatch"
	rejectNotConfigured = "not_configured"
)

// AccessGuard lets anonymous callers through on routes the policy marks
// public and requires the API key everywhere else.
func (s *Server) AccessGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		path := c.Request.URL.Path
		method := c.Request.Method

		public, err := s.authzSvc.IsPublic(ctx, path, method)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if public {
			c.Next()
			return
		}

		if !s.authenticateAPIKey(c) {
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), authorization.SubjectAPIKey, path, method); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authenticateAPIKey(c *gin.Context) bool {
	reason := checkAPIKey(c.GetHeader("Authorization"), s.cfg.APIKey)

	ctx := c.Request.Context()
	if reason != "" {
		endpoint := normalizeEndpoint(c)
		s.obsMetrics.RecordAPIKeyRejected(ctx, endpoint, reason)
		logger.FromContext(ctx).Warn("api key rejected",
			zap.String("endpoint", endpoint),
			zap.String("reason", reason),
		)
		AbortWithError(c, ErrUnauthorized)
		return false
	}

	ctx = obscontext.WithActor(ctx, actorTypeAPIKey, actorIDStatic)
	c.Request = c.Request.WithContext(ctx)
	c.Set(contextAuthTypeKey, actorTypeAPIKey)
	return true
}

// checkAPIKey returns the reject reason, or "" when the header equals the
// configured key exactly, either bare or as "Bearer <key>".
func checkAPIKey(header, expected string) string {
	switch {
	case expected == "":
		return rejectNotConfigured
	case header == "":
		return rejectMissing
	}

	matched := subtle.ConstantTimeCompare([]byte(header), []byte(expected))
	if key, ok := strings.CutPrefix(header, bearerPrefix); ok {
		matched |= subtle.ConstantTimeCompare([]byte(key), []byte(expected))
	}
	if matched != 1 {
		return rejectMismatch
	}
	return ""
}

func normalizeEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
