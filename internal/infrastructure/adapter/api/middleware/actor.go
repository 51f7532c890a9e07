package middleware

import (
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/gin-gonic/gin"
)

// Actor headers set by the gateway in front of the service
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

const actorKey = "actor"

// Actor resolves the caller from the gateway headers and rejects requests without one.
// SYSTEM is reserved for scheduled jobs and cannot be claimed over HTTP.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if id == "" {
			_ = c.Error(domainerr.NewValidationError(HeaderActorID, "header is required"))
			c.Abort()
			return
		}

		role := entity.ActorRole(strings.ToUpper(strings.TrimSpace(c.GetHeader(HeaderActorRole))))
		switch role {
		case "":
			role = entity.RoleAgent
		case entity.RoleAgent, entity.RoleAdmin:
		default:
			_ = c.Error(fmt.Errorf("%w: unsupported actor role %q", domainerr.ErrForbidden, role))
			c.Abort()
			return
		}

		c.Set(actorKey, entity.Actor{ID: id, Role: role})
		c.Next()
	}
}

// ActorFrom returns the actor resolved by the Actor middleware
func ActorFrom(c *gin.Context) (entity.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return entity.Actor{}, false
	}
	actor, ok := v.(entity.Actor)
	return actor, ok
}
