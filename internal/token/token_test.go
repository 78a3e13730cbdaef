package token

import (
	"testing"
	"time"

	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestManager_GrantRoundTrip(t *testing.T) {
	m := NewManager("test-secret", 4*time.Hour)

	signed, expiresAt, err := m.IssueGrant("user-1", "video-1", "loc-abc")
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(4*time.Hour), expiresAt, time.Minute)

	claims, err := m.ValidateGrant(signed)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "video-1", claims.VideoID)
	assert.Equal(t, "loc-abc", claims.Locator)
}

func TestManager_GrantExpires(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	signed, _, err := m.IssueGrant("user-1", "video-1", "loc-abc")
	assert.NoError(t, err)

	claims, err := m.ValidateGrant(signed)
	assert.Nil(t, claims)
	assert.True(t, app_errors.Is(err, app_errors.CodeInvalidToken))
}

func TestManager_WrongSecretRejected(t *testing.T) {
	signed, _, err := NewManager("secret-a", time.Hour).IssueGrant("user-1", "video-1", "loc-abc")
	assert.NoError(t, err)

	claims, err := NewManager("secret-b", time.Hour).ValidateGrant(signed)
	assert.Nil(t, claims)
	assert.True(t, app_errors.Is(err, app_errors.CodeInvalidToken))
}

func TestManager_IdentityTokenIsNotAGrant(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	identity, err := m.GenerateIdentityToken("user-1", "user", time.Hour)
	assert.NoError(t, err)

	claims, err := m.ValidateGrant(identity)
	assert.Nil(t, claims)
	assert.True(t, app_errors.Is(err, app_errors.CodeInvalidToken))
}

func TestManager_GrantIsNotAnIdentityToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	grant, _, err := m.IssueGrant("user-1", "video-1", "loc-abc")
	assert.NoError(t, err)

	claims, err := m.ValidateIdentityToken(grant)
	assert.Nil(t, claims)
	assert.True(t, app_errors.Is(err, app_errors.CodeUnauthenticated))
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc.def.ghi")
	assert.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractTokenFromHeader("")
	assert.Error(t, err)

	_, err = ExtractTokenFromHeader("Basic dXNlcjpwYXNz")
	assert.Error(t, err)
}
