package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	app_errors "github.com/learnloop/video-backend/internal/errors"
)

const (
	audienceIdentity = "learnloop-identity"
	audiencePlayback = "learnloop-playback"
)

// IdentityClaims authenticate a caller. Identity tokens are minted by the
// auth frontend with the shared signing secret.
type IdentityClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GrantClaims are the playback grant payload. A grant binds the caller, the
// content item and the backend locator current at issuance; it is only
// honored for that exact triple.
type GrantClaims struct {
	UserID  string `json:"userId"`
	VideoID string `json:"videoId"`
	Locator string `json:"locator"`
	jwt.RegisteredClaims
}

// Manager signs and validates both token kinds with a single HS256 secret.
// The two audiences keep an identity token from doubling as a grant.
type Manager struct {
	secretKey []byte
	grantTTL  time.Duration
}

func NewManager(secretKey string, grantTTL time.Duration) *Manager {
	return &Manager{
		secretKey: []byte(secretKey),
		grantTTL:  grantTTL,
	}
}

// GenerateIdentityToken mints an identity token. Used by provisioning
// tooling and tests; the production auth frontend holds the same secret.
func (m *Manager) GenerateIdentityToken(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &IdentityClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audienceIdentity},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateIdentityToken checks an identity token and returns its claims.
func (m *Manager) ValidateIdentityToken(tokenString string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audienceIdentity),
	)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.CodeUnauthenticated, "invalid identity token", err)
	}
	if !token.Valid {
		return nil, app_errors.New(app_errors.CodeUnauthenticated, "invalid identity token")
	}
	return claims, nil
}

// IssueGrant mints a playback grant for the (user, video, locator) triple.
func (m *Manager) IssueGrant(userID, videoID, locator string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.grantTTL)

	claims := &GrantClaims{
		UserID:  userID,
		VideoID: videoID,
		Locator: locator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audiencePlayback},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateGrant checks a playback grant. Expired, malformed and
// wrong-audience tokens all come back as CodeInvalidToken without
// distinguishing the cause to the caller.
func (m *Manager) ValidateGrant(tokenString string) (*GrantClaims, error) {
	claims := &GrantClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audiencePlayback),
	)
	if err != nil {
		return nil, app_errors.Wrap(app_errors.CodeInvalidToken, "invalid or expired grant", err)
	}
	if !token.Valid {
		return nil, app_errors.New(app_errors.CodeInvalidToken, "invalid or expired grant")
	}
	if claims.UserID == "" || claims.VideoID == "" {
		return nil, app_errors.New(app_errors.CodeInvalidToken, "invalid or expired grant")
	}
	return claims, nil
}

func (m *Manager) keyFunc(token *jwt.Token) (interface{}, error) {
	return m.secretKey, nil
}

// ExtractTokenFromHeader pulls the bearer token out of an Authorization
// header value.
func ExtractTokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", app_errors.New(app_errors.CodeUnauthenticated, "authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", app_errors.New(app_errors.CodeUnauthenticated, "authorization header must be in format: Bearer <token>")
	}
	return parts[1], nil
}
