package repository

import (
	"context"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
)

// IVideoPublisher drives the provider's two-phase upload protocol for one
// request. Implementations encode their own bounded retry policy; callers
// must not retry on top of it.
type IVideoPublisher interface {
	Upload(ctx context.Context, req *dto.VideoUploadRequest) (*dto.VideoUploadResult, error)
}

// IVideoRenderer produces the media file for a publish request. Rendering is
// an external collaborator; it can take minutes and fail.
type IVideoRenderer interface {
	Render(ctx context.Context, req *dto.RenderRequest) (*dto.RenderResult, error)
}

// IProgressSink receives fire-and-forget progress notifications. Calls never
// fail the publish: implementations swallow and log their own errors.
type IProgressSink interface {
	UpdateProgress(job *model.PublishJob, stage string, percent int)
	CompleteProgress(job *model.PublishJob, mediaID, url string)
	ErrorProgress(job *model.PublishJob, message string)
}

// IPublishJob persists publish job records.
type IPublishJob interface {
	Create(ctx context.Context, job *model.PublishJob) error
	GetByID(ctx context.Context, id int64) (*model.PublishJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.PublishJob, error)
	FetchPending(ctx context.Context, limit int) ([]*model.PublishJob, error)
	MarkRunning(ctx context.Context, id int64) error
	UpdateProgress(ctx context.Context, id int64, stage string, percent int) error
	MarkResult(ctx context.Context, id int64, success bool, externalRef, errMsg *string) error
}

// IPublishAudit appends publish attempt outcomes to the audit trail.
type IPublishAudit interface {
	Record(ctx context.Context, a *model.PublishAudit) error
}
