package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openpredict/settlement/internal/security"
)

const (
	authorizationHeader = "Authorization"
	authorizationScheme = "bearer"

	// PrincipalKey is the context key the auth middleware stores the
	// verified principal UUID under.
	PrincipalKey = "principal_id"
)

// AuthMiddleware verifies the PASETO bearer token and stores the principal
// in the request context. Funds-moving and vote-casting routes sit behind
// it; read-only routes do not.
func AuthMiddleware(maker security.Maker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			UnauthorizedResponse(c)
			c.Abort()
			return
		}

		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], authorizationScheme) {
			UnauthorizedResponse(c)
			c.Abort()
			return
		}

		payload, err := maker.VerifyToken(fields[1])
		if err != nil {
			UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set(PrincipalKey, payload.PrincipalID)
		c.Next()
	}
}

// Principal returns the authenticated principal for the request, or false
// when the route is not behind AuthMiddleware.
func Principal(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
