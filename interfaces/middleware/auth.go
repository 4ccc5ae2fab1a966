package middleware

import (
	"errors"
	"net/http"
	"strings"

	"social-integration/domain/model"
	"social-integration/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Claims is the CRM session token. Subject carries the user id; older tokens put it in Issuer.
type Claims struct {
	UserName string `json:"user_name,omitempty"`
	jwt.StandardClaims
}

// UserID returns the identity the token acts for.
func (c Claims) UserID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Issuer
}

// Auth validates the bearer token with secretKey and stores the caller under "user_id".
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, ok := bearer(ctx.GetHeader("Authorization"))
		if !ok {
			unauthorized(ctx, "missing bearer token")
			return
		}
		if secretKey == "" {
			unauthorized(ctx, "authentication is not configured")
			return
		}
		var claims Claims
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid {
			logger.GetLogger().WithField("error", err).Debug("rejected token")
			unauthorized(ctx, reason(err))
			return
		}
		if claims.UserID() == "" {
			unauthorized(ctx, "token carries no user")
			return
		}
		if model.Identity(claims.UserID()).IsSystem() {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: reserved identity"})
			return
		}
		ctx.Set("user_id", claims.UserID())
		if claims.UserName != "" {
			ctx.Set("user_name", claims.UserName)
		}
		ctx.Next()
	}
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}

func reason(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "malformed token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			return "token expired or not yet valid"
		}
	}
	return "invalid token"
}

func unauthorized(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
