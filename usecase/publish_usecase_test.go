package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/usecase"
)

// Mock implementations
type MockTokenSource struct {
	mock.Mock
}

func (m *MockTokenSource) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenSource) ForceRefresh(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, req *dto.VideoUploadRequest) (*dto.VideoUploadResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VideoUploadResult), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, req *dto.RenderRequest) (*dto.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RenderResult), args.Error(1)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Create(ctx context.Context, job *model.PublishJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepo) GetByID(ctx context.Context, id int64) (*model.PublishJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

func (m *MockJobRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.PublishJob, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishJob), args.Error(1)
}

func (m *MockJobRepo) FetchPending(ctx context.Context, limit int) ([]*model.PublishJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PublishJob), args.Error(1)
}

func (m *MockJobRepo) MarkRunning(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobRepo) UpdateProgress(ctx context.Context, id int64, stage string, percent int) error {
	args := m.Called(ctx, id, stage, percent)
	return args.Error(0)
}

func (m *MockJobRepo) MarkResult(ctx context.Context, id int64, success bool, externalRef, errMsg *string) error {
	args := m.Called(ctx, id, success, externalRef, errMsg)
	return args.Error(0)
}

type MockProgressSink struct {
	mock.Mock
}

func (m *MockProgressSink) UpdateProgress(job *model.PublishJob, stage string, percent int) {
	m.Called(job, stage, percent)
}

func (m *MockProgressSink) CompleteProgress(job *model.PublishJob, mediaID, url string) {
	m.Called(job, mediaID, url)
}

func (m *MockProgressSink) ErrorProgress(job *model.PublishJob, message string) {
	m.Called(job, message)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, a *model.PublishAudit) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func newMocks() (*MockTokenSource, *MockUploader, *MockJobRepo, *MockProgressSink) {
	return new(MockTokenSource), new(MockUploader), new(MockJobRepo), new(MockProgressSink)
}

func TestPublishUsecase_Publish_Validation(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink)

	tests := []struct {
		name string
		req  *dto.PublishRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing user", req: &dto.PublishRequest{Title: "t", MediaPath: "/tmp/v.mp4"}},
		{name: "missing title", req: &dto.PublishRequest{UserID: "u", MediaPath: "/tmp/v.mp4"}},
		{name: "missing media without renderer", req: &dto.PublishRequest{UserID: "u", Title: "t", Script: "s"}},
		{name: "invalid privacy", req: &dto.PublishRequest{UserID: "u", Title: "t", MediaPath: "/tmp/v.mp4", Privacy: "secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := uc.Publish(context.Background(), tt.req)
			assert.Nil(t, resp)
			assert.Error(t, err)
		})
	}
	// Validation failures never create a job
	jobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPublishUsecase_Publish_SyncSuccess(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink)

	jobs.On("Create", mock.Anything, mock.AnythingOfType("*model.PublishJob")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.PublishJob).ID = 7
		}).Return(nil)
	jobs.On("MarkRunning", mock.Anything, int64(7)).Return(nil)
	jobs.On("UpdateProgress", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(nil)
	jobs.On("MarkResult", mock.Anything, int64(7), true, mock.Anything, (*string)(nil)).Return(nil)
	tokens.On("GetValidAccessToken", mock.Anything, "user-1").Return("at-1", nil)
	uploader.On("Upload", mock.Anything, mock.AnythingOfType("*dto.VideoUploadRequest")).
		Return(&dto.VideoUploadResult{MediaID: "vid-1", URL: "https://www.youtube.com/watch?v=vid-1", Status: dto.UploadStatusUploaded}, nil)
	sink.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything).Return()
	sink.On("CompleteProgress", mock.Anything, "vid-1", "https://www.youtube.com/watch?v=vid-1").Return()

	resp, err := uc.Publish(context.Background(), &dto.PublishRequest{
		UserID:    "user-1",
		Title:     "Launch video",
		MediaPath: "/tmp/launch.mp4",
		Tags:      []string{"launch", "demo"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.JobID)
	assert.Equal(t, "vid-1", resp.MediaID)
	assert.Equal(t, dto.UploadStatusUploaded, resp.Status)

	jobs.AssertExpectations(t)
	uploader.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestPublishUsecase_Publish_BackgroundMode(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink)

	jobs.On("Create", mock.Anything, mock.AnythingOfType("*model.PublishJob")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.PublishJob).ID = 9
		}).Return(nil)

	resp, err := uc.Publish(context.Background(), &dto.PublishRequest{
		UserID:    "user-1",
		Title:     "Queued video",
		MediaPath: "/tmp/q.mp4",
		Mode:      dto.PublishModeBackground,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), resp.JobID)
	assert.Equal(t, model.JobStatusPending, resp.Status)

	// Background mode only enqueues; nothing runs yet
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	tokens.AssertNotCalled(t, "GetValidAccessToken", mock.Anything, mock.Anything)
	sink.AssertNotCalled(t, "UpdateProgress", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishUsecase_Publish_UploadFailureReportsBeforeReturning(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	audit := new(MockAudit)
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink).WithAudit(audit)

	cause := model.NewPublishError(model.ErrFileNotFound, "stat /tmp/missing.mp4: no such file")

	jobs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.PublishJob).ID = 11
		}).Return(nil)
	jobs.On("MarkRunning", mock.Anything, int64(11)).Return(nil)
	jobs.On("UpdateProgress", mock.Anything, int64(11), mock.Anything, mock.Anything).Return(nil)
	jobs.On("MarkResult", mock.Anything, int64(11), false, (*string)(nil), mock.AnythingOfType("*string")).Return(nil)
	tokens.On("GetValidAccessToken", mock.Anything, "user-1").Return("at-1", nil)
	uploader.On("Upload", mock.Anything, mock.Anything).Return(nil, cause)
	sink.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything).Return()
	// The sink receives the human-actionable advice, not the raw detail
	sink.On("ErrorProgress", mock.Anything, "The rendered video file is missing - render it again before publishing").Return()
	audit.On("Record", mock.Anything, mock.MatchedBy(func(a *model.PublishAudit) bool {
		return a.ErrorCode != nil && *a.ErrorCode == string(model.ErrFileNotFound)
	})).Return(nil)

	resp, err := uc.Publish(context.Background(), &dto.PublishRequest{
		UserID:    "user-1",
		Title:     "Broken video",
		MediaPath: "/tmp/missing.mp4",
	})
	assert.Nil(t, resp)
	// The original error propagates unchanged
	assert.Equal(t, model.ErrFileNotFound, model.CodeOf(err))

	jobs.AssertExpectations(t)
	sink.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestPublishUsecase_Publish_NoCredentialFailsBeforeUpload(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink)

	jobs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.PublishJob).ID = 12
		}).Return(nil)
	jobs.On("MarkRunning", mock.Anything, int64(12)).Return(nil)
	jobs.On("UpdateProgress", mock.Anything, int64(12), mock.Anything, mock.Anything).Return(nil)
	jobs.On("MarkResult", mock.Anything, int64(12), false, (*string)(nil), mock.AnythingOfType("*string")).Return(nil)
	tokens.On("GetValidAccessToken", mock.Anything, "user-2").
		Return("", model.NewPublishError(model.ErrNoCredential, "no youtube credential for user-2"))
	sink.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything).Return()
	sink.On("ErrorProgress", mock.Anything, "Connect your YouTube account before publishing").Return()

	_, err := uc.Publish(context.Background(), &dto.PublishRequest{
		UserID:    "user-2",
		Title:     "No credential video",
		MediaPath: "/tmp/v.mp4",
	})
	assert.Equal(t, model.ErrNoCredential, model.CodeOf(err))
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestPublishUsecase_Publish_ScheduleNormalizedAtPreflight(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink)

	jobs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.PublishJob).ID = 13
		}).Return(nil)
	jobs.On("MarkRunning", mock.Anything, int64(13)).Return(nil)
	jobs.On("UpdateProgress", mock.Anything, int64(13), mock.Anything, mock.Anything).Return(nil)
	jobs.On("MarkResult", mock.Anything, int64(13), true, mock.Anything, (*string)(nil)).Return(nil)
	tokens.On("GetValidAccessToken", mock.Anything, "user-1").Return("at-1", nil)
	sink.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything).Return()
	sink.On("CompleteProgress", mock.Anything, mock.Anything, mock.Anything).Return()

	start := time.Now().UTC()
	uploader.On("Upload", mock.Anything, mock.MatchedBy(func(req *dto.VideoUploadRequest) bool {
		// A 5 minute lead must be pushed out to the enforced floor
		return req.PublishAt != nil && req.PublishAt.Sub(start) >= usecase.PublishLeadFloor-time.Minute
	})).Return(&dto.VideoUploadResult{MediaID: "vid-2", URL: "u", Status: dto.UploadStatusScheduled}, nil)

	resp, err := uc.Publish(context.Background(), &dto.PublishRequest{
		UserID:    "user-1",
		Title:     "Scheduled video",
		MediaPath: "/tmp/s.mp4",
		PublishAt: start.Add(5 * time.Minute).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, dto.UploadStatusScheduled, resp.Status)
	uploader.AssertExpectations(t)
}

func TestPublishUsecase_Publish_RendersWhenNoMediaPath(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	renderer := new(MockRenderer)
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink).WithRenderer(renderer)

	jobs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.PublishJob).ID = 14
		}).Return(nil)
	jobs.On("MarkRunning", mock.Anything, int64(14)).Return(nil)
	jobs.On("UpdateProgress", mock.Anything, int64(14), mock.Anything, mock.Anything).Return(nil)
	jobs.On("MarkResult", mock.Anything, int64(14), true, mock.Anything, (*string)(nil)).Return(nil)
	tokens.On("GetValidAccessToken", mock.Anything, "user-1").Return("at-1", nil)
	sink.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything).Return()
	sink.On("CompleteProgress", mock.Anything, mock.Anything, mock.Anything).Return()
	renderer.On("Render", mock.Anything, mock.MatchedBy(func(req *dto.RenderRequest) bool {
		return req.Script == "INT. OFFICE - DAY"
	})).Return(&dto.RenderResult{MediaPath: "/tmp/rendered.mp4"}, nil)
	uploader.On("Upload", mock.Anything, mock.MatchedBy(func(req *dto.VideoUploadRequest) bool {
		return req.MediaPath == "/tmp/rendered.mp4"
	})).Return(&dto.VideoUploadResult{MediaID: "vid-3", URL: "u", Status: dto.UploadStatusUploaded}, nil)

	_, err := uc.Publish(context.Background(), &dto.PublishRequest{
		UserID: "user-1",
		Title:  "Rendered video",
		Script: "INT. OFFICE - DAY",
	})
	require.NoError(t, err)
	renderer.AssertExpectations(t)
	uploader.AssertExpectations(t)
}

func TestPublishUsecase_GetJob_OwnershipEnforced(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink)

	jobs.On("GetByID", mock.Anything, int64(5)).
		Return(&model.PublishJob{ID: 5, UserID: "someone-else"}, nil)

	job, err := uc.GetJob(context.Background(), "user-1", 5)
	assert.Nil(t, job)
	assert.Error(t, err)
}

func TestPublishUsecase_ProcessPending(t *testing.T) {
	tokens, uploader, jobs, sink := newMocks()
	uc := usecase.NewPublishUsecase(tokens, uploader, jobs, sink)

	pending := []*model.PublishJob{
		{ID: 21, UserID: "user-1", Title: "Queued", MediaPath: "/tmp/a.mp4", Status: model.JobStatusPending, Platform: "youtube"},
	}
	jobs.On("FetchPending", mock.Anything, 10).Return(pending, nil)
	jobs.On("MarkRunning", mock.Anything, int64(21)).Return(nil)
	jobs.On("UpdateProgress", mock.Anything, int64(21), mock.Anything, mock.Anything).Return(nil)
	jobs.On("MarkResult", mock.Anything, int64(21), true, mock.Anything, (*string)(nil)).Return(nil)
	tokens.On("GetValidAccessToken", mock.Anything, "user-1").Return("at-1", nil)
	uploader.On("Upload", mock.Anything, mock.Anything).
		Return(&dto.VideoUploadResult{MediaID: "vid-9", URL: "u", Status: dto.UploadStatusUploaded}, nil)
	sink.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything).Return()
	sink.On("CompleteProgress", mock.Anything, "vid-9", "u").Return()

	err := uc.ProcessPending(context.Background(), 10)
	require.NoError(t, err)
	jobs.AssertExpectations(t)
	uploader.AssertExpectations(t)
}
