package persistence

import (
	"context"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"gorm.io/gorm"
)

type PublishJobRepository struct{ db *gorm.DB }

func NewPublishJobRepository(db *gorm.DB) repository.IPublishJob {
	return &PublishJobRepository{db: db}
}

func (r *PublishJobRepository) Create(ctx context.Context, job *model.PublishJob) error {
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *PublishJobRepository) GetByID(ctx context.Context, id int64) (*model.PublishJob, error) {
	var job model.PublishJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *PublishJobRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.PublishJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []*model.PublishJob
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *PublishJobRepository) FetchPending(ctx context.Context, limit int) ([]*model.PublishJob, error) {
	if limit <= 0 {
		limit = 10
	}
	var jobs []*model.PublishJob
	err := r.db.WithContext(ctx).
		Where("status = ?", model.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *PublishJobRepository) MarkRunning(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.PublishJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.JobStatusRunning,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *PublishJobRepository) UpdateProgress(ctx context.Context, id int64, stage string, percent int) error {
	return r.db.WithContext(ctx).
		Model(&model.PublishJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stage":      stage,
			"percent":    percent,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *PublishJobRepository) MarkResult(ctx context.Context, id int64, success bool, externalRef, errMsg *string) error {
	status := model.JobStatusSuccess
	percent := 100
	if !success {
		status = model.JobStatusFailed
		percent = 0
	}
	return r.db.WithContext(ctx).
		Model(&model.PublishJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"percent":       percent,
			"external_ref":  externalRef,
			"error_message": errMsg,
			"updated_at":    time.Now().UTC(),
		}).Error
}
