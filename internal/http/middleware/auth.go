package middleware

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/instaclone-server/internal/auth"
)

const (
	TokenCookie = "token"
	userIDKey   = "userId"
)

type Auth struct {
	service *auth.Service
}

func NewAuth(service *auth.Service) *Auth {
	return &Auth{service: service}
}

// Middleware accepts the token cookie or a bearer Authorization header and
// stores the caller's id in the context.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, _ := ctx.Cookie(TokenCookie)
		if token == "" {
			token = BearerToken(ctx.GetHeader("Authorization"))
		}
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User Not Authenticated", "success": false})
			return
		}

		claims, err := a.service.Verify(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid Token", "success": false})
			return
		}

		ctx.Set(userIDKey, claims.UserID)
		ctx.Next()
	}
}

// UserID returns the id stored by the auth middleware.
func UserID(ctx *gin.Context) (string, bool) {
	id := ctx.GetString(userIDKey)
	return id, id != ""
}

func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
