package dto

import "time"

// Publish execution modes. Sync blocks the HTTP call until the upload
// finishes; background enqueues a job for the ticker processor.
const (
	PublishModeSync       = "sync"
	PublishModeBackground = "background"
)

// PublishRequest is the intake payload for publishing a video. MediaPath may
// be empty when a renderer is configured; the pipeline then renders the video
// from Script before uploading.
type PublishRequest struct {
	UserID      string   `json:"-"`
	MediaPath   string   `json:"media_path"`
	Script      string   `json:"script"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Privacy     string   `json:"privacy"`    // public | unlisted | private
	PublishAt   string   `json:"publish_at"` // RFC3339; invalid values are treated as "publish now"
	Mode        string   `json:"mode"`       // sync | background
}

// PublishResponse is returned for sync publishes and completed jobs.
type PublishResponse struct {
	JobID   int64  `json:"job_id"`
	MediaID string `json:"media_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Status  string `json:"status"` // uploaded | scheduled | pending
}

// VideoUploadRequest is the fully resolved, validator-normalized request the
// upload client sends to the provider. PublishAt nil means publish
// immediately.
type VideoUploadRequest struct {
	UserID      string
	MediaPath   string
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
	PublishAt   *time.Time
}

// Upload result statuses.
const (
	UploadStatusUploaded  = "uploaded"
	UploadStatusScheduled = "scheduled"
)

// VideoUploadResult is the outcome of a completed upload.
type VideoUploadResult struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url"`
	Status  string `json:"status"` // uploaded | scheduled
}

// RenderRequest asks the rendering collaborator for a media file.
type RenderRequest struct {
	Title  string `json:"title"`
	Script string `json:"script"`
}

// RenderResult is what the renderer hands back.
type RenderResult struct {
	MediaPath string        `json:"media_path"`
	Duration  time.Duration `json:"duration"`
}

// TokenResponse mirrors the provider token endpoint's JSON payload for both
// code exchange and refresh grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}
