package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/policies"
	domainauth "rentdesk/internal/domain/auth"
)

const (
	actorContextKey = "rentdesk.actor"
	tokenContextKey = "rentdesk.token"
)

// TokenResolver turns a bearer token into the acting user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (policies.Actor, error)
}

// AuthMiddleware attaches the actor of a valid bearer token. Requests without one continue
// anonymously; handlers and the command pipeline decide whether that is enough.
type AuthMiddleware struct {
	Resolver TokenResolver
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		c.Next()
		return
	}
	actor, err := m.Resolver.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(actorContextKey, actor)
	c.Set(tokenContextKey, token)
	c.Next()
}

// currentActor returns the zero Actor for anonymous requests.
func currentActor(c *gin.Context) policies.Actor {
	val, ok := c.Get(actorContextKey)
	if !ok {
		return policies.Actor{}
	}
	actor, _ := val.(policies.Actor)
	return actor
}

func bearerToken(c *gin.Context) string {
	if token := c.GetString(tokenContextKey); token != "" {
		return token
	}
	return extractBearerToken(c.GetHeader("Authorization"))
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
