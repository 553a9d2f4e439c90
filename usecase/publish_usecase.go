package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

const defaultUploadTimeout = 10 * time.Minute

// IPublishUsecase orchestrates one publish request end to end: credential
// check, optional render, schedule re-normalization, upload. It sequences the
// components and propagates the first failure untouched - every component
// already encodes its own bounded retry policy.
type IPublishUsecase interface {
	Publish(ctx context.Context, req *dto.PublishRequest) (*dto.PublishResponse, error)
	GetJob(ctx context.Context, userID string, jobID int64) (*model.PublishJob, error)
	ListJobs(ctx context.Context, userID string, limit int) ([]*model.PublishJob, error)
	ProcessPending(ctx context.Context, batchSize int) error
}

type PublishUsecase struct {
	tokens        repository.ITokenSource
	uploader      repository.IVideoPublisher
	jobs          repository.IPublishJob
	progress      repository.IProgressSink
	renderer      repository.IVideoRenderer // optional
	audit         repository.IPublishAudit  // optional
	uploadTimeout time.Duration
}

// NewPublishUsecase creates the publishing orchestrator.
func NewPublishUsecase(
	tokens repository.ITokenSource,
	uploader repository.IVideoPublisher,
	jobs repository.IPublishJob,
	progress repository.IProgressSink,
) *PublishUsecase {
	return &PublishUsecase{
		tokens:        tokens,
		uploader:      uploader,
		jobs:          jobs,
		progress:      progress,
		uploadTimeout: defaultUploadTimeout,
	}
}

// WithRenderer enables rendering for requests that carry a script instead of
// a media path (fluent).
func (u *PublishUsecase) WithRenderer(r repository.IVideoRenderer) *PublishUsecase {
	u.renderer = r
	return u
}

// WithAudit enables the append-only audit trail (fluent).
func (u *PublishUsecase) WithAudit(a repository.IPublishAudit) *PublishUsecase {
	u.audit = a
	return u
}

// WithUploadTimeout overrides the per-upload deadline (fluent).
func (u *PublishUsecase) WithUploadTimeout(d time.Duration) *PublishUsecase {
	if d > 0 {
		u.uploadTimeout = d
	}
	return u
}

var validPrivacy = map[string]bool{"private": true, "public": true, "unlisted": true}

func (u *PublishUsecase) Publish(ctx context.Context, req *dto.PublishRequest) (*dto.PublishResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("publish request is required")
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if req.Title == "" {
		return nil, fmt.Errorf("video title is required")
	}
	if req.MediaPath == "" && (u.renderer == nil || req.Script == "") {
		return nil, fmt.Errorf("media path is required when no renderer is configured")
	}
	if req.Privacy == "" {
		req.Privacy = "private"
	}
	if !validPrivacy[req.Privacy] {
		return nil, fmt.Errorf("invalid privacy setting: %s", req.Privacy)
	}

	// Intake pass of the validator; the pre-flight pass happens again in run()
	// with a fresh clock after rendering.
	scheduledAt := NormalizePublishTime(ParsePublishTime(req.PublishAt), time.Now().UTC())

	job := &model.PublishJob{
		UserID:      req.UserID,
		Platform:    "youtube",
		Title:       req.Title,
		Description: req.Description,
		Tags:        strings.Join(req.Tags, ","),
		CategoryID:  req.CategoryID,
		Privacy:     req.Privacy,
		MediaPath:   req.MediaPath,
		ScheduledAt: scheduledAt,
		Status:      model.JobStatusPending,
	}
	if err := u.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create publish job: %w", err)
	}

	if req.Mode == dto.PublishModeBackground {
		return &dto.PublishResponse{JobID: job.ID, Status: model.JobStatusPending}, nil
	}

	result, err := u.run(ctx, job, req.Script)
	if err != nil {
		return nil, err
	}
	return &dto.PublishResponse{JobID: job.ID, MediaID: result.MediaID, URL: result.URL, Status: result.Status}, nil
}

// run executes one publish attempt for an existing job record.
func (u *PublishUsecase) run(ctx context.Context, job *model.PublishJob, script string) (*dto.VideoUploadResult, error) {
	if err := u.jobs.MarkRunning(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("failed to mark job running: %w", err)
	}
	job.Status = model.JobStatusRunning
	u.report(ctx, job, "checking credentials", 10)

	// Resolve the credential up front so a dead connection fails before the
	// expensive render, and so the upload that follows starts with a token
	// that is not about to expire.
	if _, err := u.tokens.GetValidAccessToken(ctx, job.UserID); err != nil {
		return nil, u.fail(ctx, job, err)
	}

	mediaPath := job.MediaPath
	if mediaPath == "" && u.renderer != nil {
		u.report(ctx, job, "rendering video", 25)
		rendered, err := u.renderer.Render(ctx, &dto.RenderRequest{Title: job.Title, Script: script})
		if err != nil {
			return nil, u.fail(ctx, job, fmt.Errorf("failed to render video: %w", err))
		}
		mediaPath = rendered.MediaPath
	}

	// Pre-flight pass: rendering may have taken minutes, so the intake-time
	// schedule can be stale by now.
	publishAt := NormalizePublishTime(job.ScheduledAt, time.Now().UTC())

	u.report(ctx, job, "uploading", 50)
	upCtx, cancel := context.WithTimeout(ctx, u.uploadTimeout)
	defer cancel()

	var tags []string
	if job.Tags != "" {
		tags = strings.Split(job.Tags, ",")
	}
	result, err := u.uploader.Upload(upCtx, &dto.VideoUploadRequest{
		UserID:      job.UserID,
		MediaPath:   mediaPath,
		Title:       job.Title,
		Description: job.Description,
		Tags:        tags,
		CategoryID:  job.CategoryID,
		Privacy:     job.Privacy,
		PublishAt:   publishAt,
	})
	if err != nil {
		return nil, u.fail(ctx, job, err)
	}

	ref := result.MediaID
	if err := u.jobs.MarkResult(ctx, job.ID, true, &ref, nil); err != nil {
		logger.GetLogger().WithField("job_id", job.ID).WithField("error", err).Error("failed to record publish success")
	}
	job.Status = model.JobStatusSuccess
	u.progress.CompleteProgress(job, result.MediaID, result.URL)
	u.recordAudit(ctx, job, &result.MediaID, nil)
	return result, nil
}

// fail reports the failure through the progress sink and the job record
// before handing the error back unchanged.
func (u *PublishUsecase) fail(ctx context.Context, job *model.PublishJob, err error) error {
	msg := err.Error()
	var pe *model.PublishError
	if errors.As(err, &pe) && pe.Advice != "" {
		msg = pe.Advice
	}
	job.Status = model.JobStatusFailed
	u.progress.ErrorProgress(job, msg)
	detail := err.Error()
	if mErr := u.jobs.MarkResult(ctx, job.ID, false, nil, &detail); mErr != nil {
		logger.GetLogger().WithField("job_id", job.ID).WithField("error", mErr).Error("failed to record publish failure")
	}
	u.recordAudit(ctx, job, nil, err)
	return err
}

func (u *PublishUsecase) report(ctx context.Context, job *model.PublishJob, stage string, percent int) {
	if err := u.jobs.UpdateProgress(ctx, job.ID, stage, percent); err != nil {
		logger.GetLogger().WithField("job_id", job.ID).WithField("error", err).Warn("failed to persist job progress")
	}
	job.Stage = stage
	job.Percent = percent
	u.progress.UpdateProgress(job, stage, percent)
}

// recordAudit is fire-and-forget; the audit trail never fails a publish.
func (u *PublishUsecase) recordAudit(ctx context.Context, job *model.PublishJob, mediaID *string, cause error) {
	if u.audit == nil {
		return
	}
	a := &model.PublishAudit{
		JobID:     job.ID,
		UserID:    job.UserID,
		Platform:  job.Platform,
		Status:    job.Status,
		MediaID:   mediaID,
		CreatedAt: time.Now().UTC(),
	}
	if cause != nil {
		msg := cause.Error()
		a.ErrorMessage = &msg
		if code := model.CodeOf(cause); code != "" {
			c := string(code)
			a.ErrorCode = &c
		}
	}
	if err := u.audit.Record(ctx, a); err != nil {
		logger.GetLogger().WithField("job_id", job.ID).WithField("error", err).Warn("failed to append publish audit")
	}
}

func (u *PublishUsecase) GetJob(ctx context.Context, userID string, jobID int64) (*model.PublishJob, error) {
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load publish job: %w", err)
	}
	if job.UserID != userID {
		return nil, fmt.Errorf("publish job not found: %d", jobID)
	}
	return job, nil
}

func (u *PublishUsecase) ListJobs(ctx context.Context, userID string, limit int) ([]*model.PublishJob, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	return u.jobs.ListByUser(ctx, userID, limit)
}

// ProcessPending picks up background jobs and runs them one at a time. Each
// job is a single synchronous sequence; concurrency exists only across jobs.
func (u *PublishUsecase) ProcessPending(ctx context.Context, batchSize int) error {
	jobs, err := u.jobs.FetchPending(ctx, batchSize)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if _, err := u.run(ctx, job, ""); err != nil {
			logger.GetLogger().
				WithField("job_id", job.ID).
				WithField("error", err.Error()).
				Warn("background publish failed")
		}
	}
	return nil
}
