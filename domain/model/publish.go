package model

import "time"

// Publish job lifecycle states.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusSuccess = "success"
	JobStatusFailed  = "failed"
)

// PublishJob tracks one publish attempt end to end. The upload session itself
// is never persisted; a job that dies mid-upload is simply retried from
// scratch by the background processor.
type PublishJob struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       string     `json:"user_id" gorm:"size:128;index"`
	Platform     string     `json:"platform" gorm:"size:64"`
	Title        string     `json:"title" gorm:"size:255"`
	Description  string     `json:"description" gorm:"type:text"`
	Tags         string     `json:"tags" gorm:"type:text"` // comma-separated
	CategoryID   string     `json:"category_id" gorm:"size:32"`
	Privacy      string     `json:"privacy" gorm:"size:16"`
	MediaPath    string     `json:"media_path" gorm:"size:512"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Status       string     `json:"status" gorm:"size:16;index"`
	Stage        string     `json:"stage" gorm:"size:64"`
	Percent      int        `json:"percent"`
	ErrorMessage *string    `json:"error_message,omitempty" gorm:"type:text"`
	ExternalRef  *string    `json:"external_ref,omitempty" gorm:"size:128"` // provider media id
	AttemptCount int        `json:"attempt_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PublishAudit is an append-only record of one publish attempt outcome.
type PublishAudit struct {
	JobID        int64     `json:"job_id" bson:"job_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	Platform     string    `json:"platform" bson:"platform"`
	Status       string    `json:"status" bson:"status"`
	MediaID      *string   `json:"media_id,omitempty" bson:"media_id,omitempty"`
	ErrorCode    *string   `json:"error_code,omitempty" bson:"error_code,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
