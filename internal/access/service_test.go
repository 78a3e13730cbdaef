package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/learnloop/video-backend/internal/audit"
	backendmocks "github.com/learnloop/video-backend/internal/backend/mocks"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/store"
	storemocks "github.com/learnloop/video-backend/internal/store/mocks"
	"github.com/learnloop/video-backend/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupAccessService() (*Service, *storemocks.Database, *backendmocks.VideoBackend, *token.Manager) {
	mockDB := new(storemocks.Database)
	mockBackend := new(backendmocks.VideoBackend)
	tokens := token.NewManager("test-secret", 4*time.Hour)
	auditSvc := audit.NewService(mockDB, nil)

	service := NewService(mockDB, tokens, mockBackend, auditSvc, 2, nil)
	return service, mockDB, mockBackend, tokens
}

func readyVideo(videoID, locator string, premium bool) *store.Video {
	return &store.Video{
		VideoID:          videoID,
		Title:            "Lesson 1",
		BackendLocator:   &locator,
		IsPremium:        premium,
		ProcessingStatus: store.StatusCompleted,
	}
}

func TestService_IssueGrant_Success(t *testing.T) {
	service, mockDB, mockBackend, tokens := setupAccessService()
	ctx := context.Background()

	mockDB.On("GetUser", ctx, "user-1").Return(&store.User{UserID: "user-1", IsPremium: true}, nil)
	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-abc", true), nil)
	mockDB.On("CountActiveSessions", ctx, "user-1").Return(0, nil)
	mockBackend.On("PlaybackURL", ctx, "loc-abc", mock.AnythingOfType("time.Duration")).Return("https://cdn.test/playlist.m3u8", nil)
	mockDB.On("CreateAccessLog", ctx, mock.MatchedBy(func(e *store.AccessLog) bool {
		return e.UserID == "user-1" && e.VideoID == "video-1" && e.IPAddress == "203.0.113.7" && e.UserAgent == "player/1.0"
	})).Return(nil)
	mockDB.On("IncrementViewCount", ctx, "video-1").Return(nil)

	grant, err := service.IssueGrant(ctx, "user-1", "video-1", "203.0.113.7", "player/1.0")

	assert.NoError(t, err)
	assert.NotNil(t, grant)
	assert.Equal(t, "https://cdn.test/playlist.m3u8", grant.PlaybackURL)
	assert.WithinDuration(t, time.Now().Add(4*time.Hour), grant.ExpiresAt, time.Minute)

	claims, err := tokens.ValidateGrant(grant.Token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "video-1", claims.VideoID)
	assert.Equal(t, "loc-abc", claims.Locator)

	mockDB.AssertExpectations(t)
	mockBackend.AssertExpectations(t)
}

func TestService_IssueGrant_MissingRequestMetadataUsesSentinels(t *testing.T) {
	service, mockDB, mockBackend, _ := setupAccessService()
	ctx := context.Background()

	mockDB.On("GetUser", ctx, "user-1").Return(&store.User{UserID: "user-1"}, nil)
	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-abc", false), nil)
	mockDB.On("CountActiveSessions", ctx, "user-1").Return(1, nil)
	mockBackend.On("PlaybackURL", ctx, "loc-abc", mock.AnythingOfType("time.Duration")).Return("https://cdn.test/x", nil)
	mockDB.On("CreateAccessLog", ctx, mock.MatchedBy(func(e *store.AccessLog) bool {
		return e.IPAddress == "unknown" && e.UserAgent == "unknown"
	})).Return(nil)
	mockDB.On("IncrementViewCount", ctx, "video-1").Return(nil)

	_, err := service.IssueGrant(ctx, "user-1", "video-1", "", "")

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestService_IssueGrant_PremiumRequired(t *testing.T) {
	service, mockDB, _, _ := setupAccessService()
	ctx := context.Background()

	mockDB.On("GetUser", ctx, "user-1").Return(&store.User{UserID: "user-1", IsPremium: false}, nil)
	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-abc", true), nil)

	grant, err := service.IssueGrant(ctx, "user-1", "video-1", "1.2.3.4", "ua")

	assert.Nil(t, grant)
	assert.True(t, app_errors.Is(err, app_errors.CodePermissionDenied))
	mockDB.AssertNotCalled(t, "CreateAccessLog", mock.Anything, mock.Anything)
}

func TestService_IssueGrant_SessionCeilingReached(t *testing.T) {
	service, mockDB, _, _ := setupAccessService()
	ctx := context.Background()

	mockDB.On("GetUser", ctx, "user-1").Return(&store.User{UserID: "user-1", IsPremium: true}, nil)
	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-abc", false), nil)
	mockDB.On("CountActiveSessions", ctx, "user-1").Return(2, nil)

	grant, err := service.IssueGrant(ctx, "user-1", "video-1", "1.2.3.4", "ua")

	assert.Nil(t, grant)
	assert.True(t, app_errors.Is(err, app_errors.CodeResourceExhausted))
}

func TestService_IssueGrant_PerUserCeilingOverride(t *testing.T) {
	service, mockDB, mockBackend, _ := setupAccessService()
	ctx := context.Background()

	five := int32(5)
	mockDB.On("GetUser", ctx, "user-1").Return(&store.User{UserID: "user-1", IsPremium: true, MaxSessions: &five}, nil)
	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-abc", false), nil)
	mockDB.On("CountActiveSessions", ctx, "user-1").Return(4, nil)
	mockBackend.On("PlaybackURL", ctx, "loc-abc", mock.AnythingOfType("time.Duration")).Return("https://cdn.test/x", nil)
	mockDB.On("CreateAccessLog", ctx, mock.Anything).Return(nil)
	mockDB.On("IncrementViewCount", ctx, "video-1").Return(nil)

	_, err := service.IssueGrant(ctx, "user-1", "video-1", "1.2.3.4", "ua")

	assert.NoError(t, err)
}

func TestService_IssueGrant_VideoNotReady(t *testing.T) {
	service, mockDB, _, _ := setupAccessService()
	ctx := context.Background()

	locator := "loc-abc"
	mockDB.On("GetUser", ctx, "user-1").Return(&store.User{UserID: "user-1", IsPremium: true}, nil)
	mockDB.On("GetVideo", ctx, "video-1").Return(&store.Video{
		VideoID:          "video-1",
		BackendLocator:   &locator,
		ProcessingStatus: store.StatusProcessing,
	}, nil)
	mockDB.On("CountActiveSessions", ctx, "user-1").Return(0, nil)

	grant, err := service.IssueGrant(ctx, "user-1", "video-1", "1.2.3.4", "ua")

	assert.Nil(t, grant)
	assert.True(t, app_errors.Is(err, app_errors.CodeFailedPrecondition))
}

func TestService_IssueGrant_AuditWriteFailureBlocksGrant(t *testing.T) {
	service, mockDB, mockBackend, _ := setupAccessService()
	ctx := context.Background()

	mockDB.On("GetUser", ctx, "user-1").Return(&store.User{UserID: "user-1", IsPremium: true}, nil)
	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-abc", false), nil)
	mockDB.On("CountActiveSessions", ctx, "user-1").Return(0, nil)
	mockBackend.On("PlaybackURL", ctx, "loc-abc", mock.AnythingOfType("time.Duration")).Return("https://cdn.test/x", nil)
	mockDB.On("CreateAccessLog", ctx, mock.Anything).Return(errors.New("ydb unavailable"))

	grant, err := service.IssueGrant(ctx, "user-1", "video-1", "1.2.3.4", "ua")

	assert.Nil(t, grant)
	assert.Error(t, err)
	mockDB.AssertNotCalled(t, "IncrementViewCount", mock.Anything, mock.Anything)
}

func TestService_IssueGrant_UnknownUser(t *testing.T) {
	service, mockDB, _, _ := setupAccessService()
	ctx := context.Background()

	mockDB.On("GetUser", ctx, "ghost").Return(nil, app_errors.New(app_errors.CodeNotFound, "user not found"))

	grant, err := service.IssueGrant(ctx, "ghost", "video-1", "1.2.3.4", "ua")

	assert.Nil(t, grant)
	assert.True(t, app_errors.Is(err, app_errors.CodeUnauthenticated))
}

func TestService_ValidateGrant_Success(t *testing.T) {
	service, mockDB, _, tokens := setupAccessService()
	ctx := context.Background()

	signed, _, err := tokens.IssueGrant("user-1", "video-1", "loc-abc")
	assert.NoError(t, err)

	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-abc", false), nil)

	validation, err := service.ValidateGrant(ctx, signed)

	assert.NoError(t, err)
	assert.Equal(t, "user-1", validation.UserID)
	assert.Equal(t, "video-1", validation.VideoID)
}

func TestService_ValidateGrant_LocatorChangedSinceIssuance(t *testing.T) {
	service, mockDB, _, tokens := setupAccessService()
	ctx := context.Background()

	signed, _, err := tokens.IssueGrant("user-1", "video-1", "loc-old")
	assert.NoError(t, err)

	// The item was re-ingested and points at a new locator now.
	mockDB.On("GetVideo", ctx, "video-1").Return(readyVideo("video-1", "loc-new", false), nil)

	validation, err := service.ValidateGrant(ctx, signed)

	assert.Nil(t, validation)
	assert.True(t, app_errors.Is(err, app_errors.CodeInvalidToken))
}

func TestService_ValidateGrant_Garbage(t *testing.T) {
	service, _, _, _ := setupAccessService()

	validation, err := service.ValidateGrant(context.Background(), "not-a-token")

	assert.Nil(t, validation)
	assert.True(t, app_errors.Is(err, app_errors.CodeInvalidToken))
}
