package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	pair, err := m.GenerateToken(7, "alice@example.com", "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "7", claims.Subject)
}

func TestParseToken_Errors(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)
	pair, err := m.GenerateToken(7, "alice@example.com", "Alice")
	require.NoError(t, err)

	// Refresh Token不能当Access Token用
	_, err = m.ParseToken(pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	// 密钥不同
	other := NewManager("other-secret", time.Hour, time.Hour)
	_, err = other.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = m.ParseToken("not.a.token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, time.Hour)
	pair, err := m.GenerateToken(1, "a@example.com", "A")
	require.NoError(t, err)

	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestRefreshAccessToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)
	pair, err := m.GenerateToken(9, "bob@example.com", "Bob")
	require.NoError(t, err)

	access, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ParseToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)

	_, err = m.RefreshAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
