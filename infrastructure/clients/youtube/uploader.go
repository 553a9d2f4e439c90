package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/go-querystring/query"
	ytapi "google.golang.org/api/youtube/v3"
)

const defaultUploadEndpoint = "https://www.googleapis.com/upload/youtube/v3/videos"

// Uploader drives YouTube's two-phase resumable upload protocol: phase 1
// posts the video metadata and receives a session location, phase 2 PUTs the
// raw media bytes there. Metadata is never resent in phase 2.
//
// A 401 at either phase triggers exactly one forced token refresh and one
// retry of that phase; a second 401 is terminal. That bounds the retries even
// when the provider simply denies the scope.
type Uploader struct {
	tokens     repository.ITokenSource
	httpClient *http.Client
	endpoint   string
}

// NewUploader creates an upload client resolving tokens through the given
// source.
func NewUploader(tokens repository.ITokenSource) *Uploader {
	return &Uploader{
		tokens:     tokens,
		httpClient: http.DefaultClient,
		endpoint:   defaultUploadEndpoint,
	}
}

// WithEndpoint overrides the upload endpoint (fluent, used by tests).
func (u *Uploader) WithEndpoint(endpoint string) *Uploader {
	u.endpoint = endpoint
	return u
}

// WithHTTPClient overrides the HTTP client (fluent).
func (u *Uploader) WithHTTPClient(c *http.Client) *Uploader {
	if c != nil {
		u.httpClient = c
	}
	return u
}

var _ repository.IVideoPublisher = (*Uploader)(nil)

// sessionParams are the query parameters of the session-init request.
type sessionParams struct {
	UploadType string `url:"uploadType"`
	Part       string `url:"part"`
}

// Upload publishes one video. The media file is checked and read fully into
// memory before any network call; files beyond a single PUT's practical size
// are out of scope.
func (u *Uploader) Upload(ctx context.Context, req *dto.VideoUploadRequest) (*dto.VideoUploadResult, error) {
	info, err := os.Stat(req.MediaPath)
	if err != nil {
		return nil, model.WrapPublishError(model.ErrFileNotFound, fmt.Sprintf("media file not found: %s", req.MediaPath), err)
	}
	if info.IsDir() {
		return nil, model.NewPublishError(model.ErrFileNotFound, fmt.Sprintf("media path is a directory: %s", req.MediaPath))
	}
	data, err := os.ReadFile(req.MediaPath)
	if err != nil {
		return nil, model.WrapPublishError(model.ErrFileNotFound, fmt.Sprintf("failed to read media file: %s", req.MediaPath), err)
	}

	token, err := u.tokens.GetValidAccessToken(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	contentType := mediaContentType(req.MediaPath)
	meta := buildVideoResource(req)

	location, token, err := u.openSessionWithRetry(ctx, token, req.UserID, meta, int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}

	mediaID, err := u.transferWithRetry(ctx, token, req.UserID, location, data, contentType)
	if err != nil {
		return nil, err
	}

	status := dto.UploadStatusUploaded
	if req.PublishAt != nil {
		status = dto.UploadStatusScheduled
	}
	logger.GetLogger().
		WithField("user_id", req.UserID).
		WithField("media_id", mediaID).
		WithField("status", status).
		Info("Video upload finished")
	return &dto.VideoUploadResult{
		MediaID: mediaID,
		URL:     fmt.Sprintf("https://www.youtube.com/watch?v=%s", mediaID),
		Status:  status,
	}, nil
}

// buildVideoResource assembles the phase-1 metadata body.
func buildVideoResource(req *dto.VideoUploadRequest) *ytapi.Video {
	video := &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			CategoryId:  req.CategoryID,
		},
		Status: &ytapi.VideoStatus{
			PrivacyStatus: req.Privacy,
		},
	}
	if req.PublishAt != nil {
		// Scheduled videos must be private until the provider flips them live.
		video.Status.PrivacyStatus = "private"
		video.Status.PublishAt = req.PublishAt.UTC().Format(time.RFC3339)
	}
	return video
}

// openSessionWithRetry runs phase 1, retrying once after a forced refresh
// when the provider rejects the token. It returns the session location and
// the token the session was opened with, so phase 2 starts from the same
// credential.
func (u *Uploader) openSessionWithRetry(ctx context.Context, token, userID string, meta *ytapi.Video, size int64, contentType string) (string, string, error) {
	location, err := u.openSession(ctx, token, meta, size, contentType)
	if model.CodeOf(err) != model.ErrAuthDenied {
		return location, token, err
	}
	logger.GetLogger().WithField("user_id", userID).Warn("Upload session rejected the access token, forcing refresh")
	fresh, rerr := u.tokens.ForceRefresh(ctx, userID)
	if rerr != nil {
		return "", "", rerr
	}
	location, err = u.openSession(ctx, fresh, meta, size, contentType)
	return location, fresh, err
}

func (u *Uploader) openSession(ctx context.Context, token string, meta *ytapi.Video, size int64, contentType string) (string, error) {
	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode video metadata: %w", err)
	}
	params, err := query.Values(sessionParams{UploadType: "resumable", Part: "snippet,status"})
	if err != nil {
		return "", fmt.Errorf("failed to encode session params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint+"?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", contentType)
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyResponse(resp)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", model.NewPublishError(model.ErrProviderError, "upload session response missing Location header")
	}
	return location, nil
}

// transferWithRetry runs phase 2 with the same bounded 401 policy as phase 1.
func (u *Uploader) transferWithRetry(ctx context.Context, token, userID, location string, data []byte, contentType string) (string, error) {
	mediaID, err := u.transfer(ctx, token, location, data, contentType)
	if model.CodeOf(err) != model.ErrAuthDenied {
		return mediaID, err
	}
	logger.GetLogger().WithField("user_id", userID).Warn("Binary transfer rejected the access token, forcing refresh")
	fresh, rerr := u.tokens.ForceRefresh(ctx, userID)
	if rerr != nil {
		return "", rerr
	}
	return u.transfer(ctx, fresh, location, data, contentType)
}

func (u *Uploader) transfer(ctx context.Context, token, location string, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyResponse(resp)
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", model.WrapPublishError(model.ErrProviderError, "unparseable upload response", err)
	}
	if uploaded.ID == "" {
		return "", model.NewPublishError(model.ErrProviderError, "upload response missing media id")
	}
	return uploaded.ID, nil
}

func mediaContentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "video/mp4"
}
