package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/learnloop/video-backend/internal/backend"
	backendmocks "github.com/learnloop/video-backend/internal/backend/mocks"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/store"
	storemocks "github.com/learnloop/video-backend/internal/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupContentService() (*Service, *storemocks.Database, *backendmocks.VideoBackend) {
	mockDB := new(storemocks.Database)
	mockBackend := new(backendmocks.VideoBackend)
	mockBackend.On("Name").Return("mock").Maybe()
	service := NewService(mockDB, mockBackend, nil, time.Hour, nil)
	return service, mockDB, mockBackend
}

func TestService_CreateContent_DirectUpload(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	slot := &backend.UploadSlot{
		URL:         "https://upload.test/slot",
		Method:      "PUT",
		ExpiresAt:   time.Now().Add(time.Hour),
		StoragePath: "staging/abc/lesson.mp4",
	}
	mockBackend.On("Provision", ctx, mock.MatchedBy(func(p backend.ProvisionParams) bool {
		return p.Title == "Lesson 1" && p.Filename == "lesson.mp4"
	})).Return(&backend.Provisioned{Locator: "loc-abc", Upload: slot}, nil)

	mockDB.On("CreateVideo", ctx, mock.MatchedBy(func(v *store.Video) bool {
		return v.Title == "Lesson 1" &&
			v.BackendLocator != nil && *v.BackendLocator == "loc-abc" &&
			v.ProcessingStatus == store.StatusPending
	})).Return(nil)
	mockDB.On("CreateUploadRecord", ctx, mock.MatchedBy(func(r *store.UploadRecord) bool {
		return r.BackendLocator == "loc-abc" && r.StoragePath == "staging/abc/lesson.mp4" && r.Status == store.UploadStatusStaged
	})).Return(nil)

	created, err := service.CreateContent(ctx, CreateParams{
		Title:       "Lesson 1",
		Filename:    "lesson.mp4",
		ContentType: "video/mp4",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, created.VideoID)
	assert.NotEmpty(t, created.UploadID)
	assert.Equal(t, "https://upload.test/slot", created.UploadURL)

	mockDB.AssertExpectations(t)
	mockBackend.AssertExpectations(t)
}

func TestService_CreateContent_CatalogWriteFailureLeavesVendorResource(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	mockBackend.On("Provision", ctx, mock.Anything).Return(&backend.Provisioned{Locator: "loc-abc"}, nil)
	mockDB.On("CreateVideo", ctx, mock.Anything).Return(errors.New("ydb unavailable"))

	created, err := service.CreateContent(ctx, CreateParams{
		Title:       "Lesson 1",
		Filename:    "lesson.mp4",
		ContentType: "video/mp4",
	})

	assert.Error(t, err)
	assert.Nil(t, created)
	// The orphaned vendor container is reconciled by polling, never
	// deleted inline.
	mockBackend.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_CreateContent_URLIngestion(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	mockBackend.On("IngestFromURL", ctx, mock.Anything, "https://source.test/lesson.mp4").Return("loc-pull", nil)
	mockDB.On("CreateVideo", ctx, mock.Anything).Return(nil)

	created, err := service.CreateContent(ctx, CreateParams{
		Title:     "Lesson 1",
		SourceURL: "https://source.test/lesson.mp4",
	})

	assert.NoError(t, err)
	assert.Empty(t, created.UploadURL)
	mockDB.AssertNotCalled(t, "CreateUploadRecord", mock.Anything, mock.Anything)
}

func TestService_CreateContent_RejectsBadTitle(t *testing.T) {
	service, _, mockBackend := setupContentService()

	_, err := service.CreateContent(context.Background(), CreateParams{Title: "  "})

	assert.True(t, app_errors.Is(err, app_errors.CodeInvalidArgument))
	mockBackend.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything)
}

func TestService_ConfirmUpload_TransfersAndMovesToProcessing(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	locator := "loc-abc"
	mockDB.On("GetVideo", ctx, "video-1").Return(&store.Video{VideoID: "video-1", BackendLocator: &locator, ProcessingStatus: store.StatusPending}, nil)
	mockDB.On("GetUploadRecord", ctx, "upload-1").Return(&store.UploadRecord{
		UploadID:       "upload-1",
		BackendLocator: "loc-abc",
		StoragePath:    "staging/abc/lesson.mp4",
		Status:         store.UploadStatusStaged,
	}, nil)
	mockBackend.On("CompleteUpload", ctx, "loc-abc", "staging/abc/lesson.mp4").Return(int64(4_200_000), nil)
	mockDB.On("CreateUploadRecord", ctx, mock.MatchedBy(func(r *store.UploadRecord) bool {
		return r.UploadID == "upload-1" && r.Status == store.UploadStatusTransferred
	})).Return(nil)
	mockDB.On("UpdateVideoStatus", ctx, "video-1", store.StatusProcessing, (*int32)(nil)).Return(nil)

	size, err := service.ConfirmUpload(ctx, "video-1", "upload-1")

	assert.NoError(t, err)
	assert.Equal(t, int64(4_200_000), size)
	mockDB.AssertNotCalled(t, "DeleteUploadRecord", mock.Anything, mock.Anything)
	mockDB.AssertExpectations(t)
	mockBackend.AssertExpectations(t)
}

func TestService_ConfirmUpload_ForeignUploadRecord(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	locator := "loc-abc"
	mockDB.On("GetVideo", ctx, "video-1").Return(&store.Video{VideoID: "video-1", BackendLocator: &locator}, nil)
	mockDB.On("GetUploadRecord", ctx, "upload-2").Return(&store.UploadRecord{
		UploadID:       "upload-2",
		BackendLocator: "loc-other",
	}, nil)

	_, err := service.ConfirmUpload(ctx, "video-1", "upload-2")

	assert.True(t, app_errors.Is(err, app_errors.CodeInvalidArgument))
	mockBackend.AssertNotCalled(t, "CompleteUpload", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_CheckStatus_PersistsTransition(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	locator := "loc-abc"
	duration := int32(733)
	mockDB.On("GetVideo", ctx, "video-1").Return(&store.Video{
		VideoID:          "video-1",
		Title:            "Lesson 1",
		BackendLocator:   &locator,
		ProcessingStatus: store.StatusProcessing,
	}, nil)
	mockBackend.On("ProbeStatus", ctx, "loc-abc").Return(&backend.Status{State: store.StatusCompleted, Progress: 100, DurationSeconds: &duration}, nil)
	mockDB.On("UpdateVideoStatus", ctx, "video-1", store.StatusCompleted, &duration).Return(nil)

	status, err := service.CheckStatus(ctx, "video-1")

	assert.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, status.Status)
	assert.Equal(t, int32(100), status.Progress)
	assert.Equal(t, duration, *status.DurationSeconds)
	mockDB.AssertExpectations(t)
}

func TestService_CheckStatus_UnchangedStateWritesNothing(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	locator := "loc-abc"
	mockDB.On("GetVideo", ctx, "video-1").Return(&store.Video{
		VideoID:          "video-1",
		BackendLocator:   &locator,
		ProcessingStatus: store.StatusProcessing,
	}, nil)
	mockBackend.On("ProbeStatus", ctx, "loc-abc").Return(&backend.Status{State: store.StatusProcessing}, nil)

	status, err := service.CheckStatus(ctx, "video-1")

	assert.NoError(t, err)
	assert.Equal(t, store.StatusProcessing, status.Status)
	mockDB.AssertNotCalled(t, "UpdateVideoStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_CheckStatus_NoLocatorReturnsStoredState(t *testing.T) {
	service, mockDB, mockBackend := setupContentService()
	ctx := context.Background()

	mockDB.On("GetVideo", ctx, "video-1").Return(&store.Video{
		VideoID:          "video-1",
		ProcessingStatus: store.StatusPending,
	}, nil)

	status, err := service.CheckStatus(ctx, "video-1")

	assert.NoError(t, err)
	assert.Equal(t, store.StatusPending, status.Status)
	mockBackend.AssertNotCalled(t, "ProbeStatus", mock.Anything, mock.Anything)
}
