package utils

import (
	"time"

	"social-integration/infrastructure/logger"

	"github.com/golang-jwt/jwt"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// GenerateToken signs a session token for userID valid for ttl; a zero ttl never expires.
func GenerateToken(userID, userName, secretKey string, ttl time.Duration) (string, error) {
	now := GetCurrentTime()
	claims := jwt.MapClaims{
		"sub":       userID,
		"user_name": userName,
		"iat":       now.Unix(),
	}
	if ttl != 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}
