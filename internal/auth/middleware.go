package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "auth.user_id"
	ctxRole   = "auth.role"
)

// Authenticator resolves the caller identity for /api routes.
// When Disabled, identity comes from X-User-ID / X-User-Role headers
// (local development and tests).
type Authenticator struct {
	JWT      JWT
	Disabled bool
}

func (a Authenticator) identify(c *gin.Context) (uint64, string, bool) {
	if a.Disabled {
		id, err := strconv.ParseUint(strings.TrimSpace(c.GetHeader("X-User-ID")), 10, 64)
		if err != nil || id == 0 {
			return 0, "", false
		}
		role := strings.ToLower(strings.TrimSpace(c.GetHeader("X-User-Role")))
		if role == "" {
			role = RoleUser
		}
		return id, role, true
	}
	tok := bearerToken(c.GetHeader("Authorization"))
	if tok == "" {
		// Browsers cannot set headers on websocket upgrades.
		tok = strings.TrimSpace(c.Query("access_token"))
	}
	if tok == "" {
		return 0, "", false
	}
	claims, err := a.JWT.Verify(tok)
	if err != nil {
		return 0, "", false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, "", false
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if role == "" {
		role = RoleUser
	}
	return id, role, true
}

// RequireUser admits any authenticated caller.
func (a Authenticator) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, role, ok := a.identify(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing or invalid credentials")
			return
		}
		c.Set(ctxUserID, id)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// RequireAdmin admits callers with role=admin.
func (a Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, role, ok := a.identify(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing or invalid credentials")
			return
		}
		if role != RoleAdmin {
			abort(c, http.StatusForbidden, "admin role required")
			return
		}
		c.Set(ctxUserID, id)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok && id > 0
}

func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": msg,
		"data":    nil,
		"meta":    nil,
	})
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
