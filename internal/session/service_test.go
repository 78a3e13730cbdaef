package session

import (
	"context"
	"testing"
	"time"

	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/store"
	storemocks "github.com/learnloop/video-backend/internal/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestService_Start(t *testing.T) {
	mockDB := new(storemocks.Database)
	service := NewService(mockDB, nil)
	ctx := context.Background()

	videoID := "video-1"
	mockDB.On("CreateSession", ctx, mock.MatchedBy(func(s *store.Session) bool {
		return s.UserID == "user-1" && s.IsActive && s.VideoID != nil && *s.VideoID == "video-1"
	})).Return(nil)

	created, err := service.Start(ctx, "user-1", &videoID, nil)

	assert.NoError(t, err)
	assert.NotEmpty(t, created.SessionID)
	assert.True(t, created.IsActive)
	mockDB.AssertExpectations(t)
}

func TestService_Heartbeat(t *testing.T) {
	mockDB := new(storemocks.Database)
	service := NewService(mockDB, nil)
	ctx := context.Background()

	mockDB.On("GetSession", ctx, "s-1").Return(&store.Session{SessionID: "s-1", UserID: "user-1", IsActive: true}, nil)
	mockDB.On("TouchSession", ctx, "s-1", mock.AnythingOfType("time.Time")).Return(nil)

	assert.NoError(t, service.Heartbeat(ctx, "s-1", "user-1"))
	mockDB.AssertExpectations(t)
}

func TestService_Heartbeat_ForeignSession(t *testing.T) {
	mockDB := new(storemocks.Database)
	service := NewService(mockDB, nil)
	ctx := context.Background()

	mockDB.On("GetSession", ctx, "s-1").Return(&store.Session{SessionID: "s-1", UserID: "user-2", IsActive: true}, nil)

	err := service.Heartbeat(ctx, "s-1", "user-1")

	assert.True(t, app_errors.Is(err, app_errors.CodePermissionDenied))
	mockDB.AssertNotCalled(t, "TouchSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Heartbeat_InactiveSession(t *testing.T) {
	mockDB := new(storemocks.Database)
	service := NewService(mockDB, nil)
	ctx := context.Background()

	mockDB.On("GetSession", ctx, "s-1").Return(&store.Session{
		SessionID: "s-1", UserID: "user-1", IsActive: false, LastActiveAt: time.Now().Add(-5 * time.Hour),
	}, nil)

	err := service.Heartbeat(ctx, "s-1", "user-1")

	assert.True(t, app_errors.Is(err, app_errors.CodeFailedPrecondition))
}

func TestService_End_IdempotentOnInactive(t *testing.T) {
	mockDB := new(storemocks.Database)
	service := NewService(mockDB, nil)
	ctx := context.Background()

	mockDB.On("GetSession", ctx, "s-1").Return(&store.Session{SessionID: "s-1", UserID: "user-1", IsActive: false}, nil)

	assert.NoError(t, service.End(ctx, "s-1", "user-1"))
	mockDB.AssertNotCalled(t, "DeactivateSession", mock.Anything, mock.Anything)
}

func TestService_End(t *testing.T) {
	mockDB := new(storemocks.Database)
	service := NewService(mockDB, nil)
	ctx := context.Background()

	mockDB.On("GetSession", ctx, "s-1").Return(&store.Session{SessionID: "s-1", UserID: "user-1", IsActive: true}, nil)
	mockDB.On("DeactivateSession", ctx, "s-1").Return(nil)

	assert.NoError(t, service.End(ctx, "s-1", "user-1"))
	mockDB.AssertExpectations(t)
}
