package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/store"
	storemocks "github.com/learnloop/video-backend/internal/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type stagingMock struct {
	mock.Mock
}

func (m *stagingMock) DeleteStagedObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func setupSweepService() (*Service, *storemocks.Database, *stagingMock) {
	mockDB := new(storemocks.Database)
	mockStorage := new(stagingMock)
	service := NewService(mockDB, mockStorage, 4*time.Hour, 30*time.Minute, nil)
	return service, mockDB, mockStorage
}

func TestService_SweepSessions_DeactivatesStale(t *testing.T) {
	service, mockDB, _ := setupSweepService()
	ctx := context.Background()

	stale := []*store.Session{
		{SessionID: "s-1", UserID: "user-1", IsActive: true},
		{SessionID: "s-2", UserID: "user-2", IsActive: true},
	}
	mockDB.On("ListActiveSessionsIdleSince", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
		return time.Since(cutoff) > 3*time.Hour
	})).Return(stale, nil)
	mockDB.On("DeactivateSession", ctx, "s-1").Return(nil)
	mockDB.On("DeactivateSession", ctx, "s-2").Return(nil)

	report, err := service.SweepSessions(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 2, report.Swept)
	assert.Equal(t, 0, report.Errors)
	mockDB.AssertExpectations(t)
}

func TestService_SweepSessions_OneFailureDoesNotStopTheBatch(t *testing.T) {
	service, mockDB, _ := setupSweepService()
	ctx := context.Background()

	stale := []*store.Session{
		{SessionID: "s-1", IsActive: true},
		{SessionID: "s-2", IsActive: true},
		{SessionID: "s-3", IsActive: true},
	}
	mockDB.On("ListActiveSessionsIdleSince", ctx, mock.Anything).Return(stale, nil)
	mockDB.On("DeactivateSession", ctx, "s-1").Return(nil)
	mockDB.On("DeactivateSession", ctx, "s-2").Return(errors.New("ydb unavailable"))
	mockDB.On("DeactivateSession", ctx, "s-3").Return(nil)

	report, err := service.SweepSessions(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Swept)
	assert.Equal(t, 1, report.Errors)
}

func TestService_SweepUploads_ObjectThenRecord(t *testing.T) {
	service, mockDB, mockStorage := setupSweepService()
	ctx := context.Background()

	records := []*store.UploadRecord{
		{UploadID: "u-1", StoragePath: "staging/a/file.mp4", Status: store.UploadStatusStaged},
	}
	mockDB.On("ListUploadRecordsOlderThan", ctx, mock.Anything).Return(records, nil)
	mockStorage.On("DeleteStagedObject", ctx, "staging/a/file.mp4").Return(nil)
	mockDB.On("DeleteUploadRecord", ctx, "u-1").Return(nil)

	report, err := service.SweepUploads(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Swept)
	mockStorage.AssertExpectations(t)
	mockDB.AssertExpectations(t)
}

func TestService_SweepUploads_MissingObjectStillCleansRecord(t *testing.T) {
	service, mockDB, mockStorage := setupSweepService()
	ctx := context.Background()

	records := []*store.UploadRecord{
		{UploadID: "u-1", StoragePath: "staging/a/file.mp4"},
	}
	mockDB.On("ListUploadRecordsOlderThan", ctx, mock.Anything).Return(records, nil)
	mockStorage.On("DeleteStagedObject", ctx, "staging/a/file.mp4").Return(app_errors.New(app_errors.CodeNotFound, "staged object not found"))
	mockDB.On("DeleteUploadRecord", ctx, "u-1").Return(nil)

	report, err := service.SweepUploads(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Swept)
	assert.Equal(t, 0, report.Errors)
}

func TestService_SweepUploads_StorageFailureKeepsRecord(t *testing.T) {
	service, mockDB, mockStorage := setupSweepService()
	ctx := context.Background()

	records := []*store.UploadRecord{
		{UploadID: "u-1", StoragePath: "staging/a/file.mp4"},
		{UploadID: "u-2", StoragePath: "staging/b/file.mp4"},
	}
	mockDB.On("ListUploadRecordsOlderThan", ctx, mock.Anything).Return(records, nil)
	mockStorage.On("DeleteStagedObject", ctx, "staging/a/file.mp4").Return(errors.New("storage unavailable"))
	mockStorage.On("DeleteStagedObject", ctx, "staging/b/file.mp4").Return(nil)
	mockDB.On("DeleteUploadRecord", ctx, "u-2").Return(nil)

	report, err := service.SweepUploads(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Swept)
	assert.Equal(t, 1, report.Errors)
	mockDB.AssertNotCalled(t, "DeleteUploadRecord", ctx, "u-1")
}
