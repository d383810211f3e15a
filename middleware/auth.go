package middleware

import (
	"net/http"

	"bookitgy/services/auth"
	"bookitgy/utils"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key of the signed-in user id.
const UserIDKey = "userID"

// SessionAuthMiddleware rejects requests while no credential is held. The API is the authority
// on roles; this only stops requests that would certainly fail.
func SessionAuthMiddleware(session *auth.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.SignedIn() {
			utils.JSONErrorCode(c, http.StatusUnauthorized, "Sign in required", "", "SIGNED_OUT")
			return
		}
		claims, err := session.Claims()
		if err != nil {
			utils.JSONErrorCode(c, http.StatusUnauthorized, "Invalid session", err.Error(), "SESSION_INVALID")
			return
		}
		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}
