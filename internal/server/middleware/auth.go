package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/service/auth"
)

const principalKey = "farmhub.principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   string
	Email    string
	Role     models.Role
	FarmerID string
}

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller in the gin context.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be 'Bearer <token>'"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(principalKey, Principal{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Role:     claims.Role,
			FarmerID: claims.FarmerID,
		})
		c.Next()
	}
}

// RequireRole lets only the listed roles through. It must run after Authenticate.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

// CurrentPrincipal returns the caller stored by Authenticate.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// CanAccessFarmer reports whether p may read records of farmerID. Operators
// see every farmer; farmers only themselves.
func (p Principal) CanAccessFarmer(farmerID string) bool {
	switch p.Role {
	case models.RoleAdmin, models.RoleManager:
		return true
	case models.RoleFarmer:
		return p.FarmerID != "" && p.FarmerID == farmerID
	default:
		return false
	}
}
