package utils_test

import (
	"testing"
	"time"

	"social-integration/infrastructure/utils"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	signed, err := utils.GenerateToken("u-1", "bob", "k", time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) { return []byte("k"), nil })
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims["sub"])
	assert.Equal(t, "bob", claims["user_name"])
	assert.NotNil(t, claims["exp"])
}

func TestGenerateToken_NoExpiry(t *testing.T) {
	signed, err := utils.GenerateToken("u-1", "", "k", 0)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) { return []byte("k"), nil })
	require.NoError(t, err)
	_, ok := claims["exp"]
	assert.False(t, ok)
}
