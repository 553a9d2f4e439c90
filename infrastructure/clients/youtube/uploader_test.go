package youtube_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ytapi "google.golang.org/api/youtube/v3"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	youtube "social-publisher/infrastructure/clients/youtube"
)

// stubTokenSource hands out canned tokens and counts forced refreshes.
type stubTokenSource struct {
	token        string
	refreshed    string
	getCalls     int64
	refreshCalls int64
}

func (s *stubTokenSource) GetValidAccessToken(_ context.Context, _ string) (string, error) {
	atomic.AddInt64(&s.getCalls, 1)
	return s.token, nil
}

func (s *stubTokenSource) ForceRefresh(_ context.Context, _ string) (string, error) {
	atomic.AddInt64(&s.refreshCalls, 1)
	return s.refreshed, nil
}

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really mpeg4"), 0o644))
	return path
}

func uploadRequest(path string) *dto.VideoUploadRequest {
	return &dto.VideoUploadRequest{
		UserID:      "user-1",
		MediaPath:   path,
		Title:       "Launch video",
		Description: "desc",
		Tags:        []string{"launch"},
		CategoryID:  "22",
		Privacy:     "public",
	}
}

func TestUploader_TwoPhaseSuccess(t *testing.T) {
	var gotMeta ytapi.Video
	var putBody int64
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "resumable", r.URL.Query().Get("uploadType"))
		assert.Equal(t, "snippet,status", r.URL.Query().Get("part"))
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		assert.Equal(t, "video/mp4", r.Header.Get("X-Upload-Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Upload-Content-Length"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMeta))
		w.Header().Set("Location", srv.URL+"/session/abc")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/session/abc", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		putBody = r.ContentLength
		_, _ = w.Write([]byte(`{"id":"vid-123"}`))
	})

	tokens := &stubTokenSource{token: "at-1"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL + "/upload")

	res, err := u.Upload(context.Background(), uploadRequest(writeTempVideo(t)))
	require.NoError(t, err)
	assert.Equal(t, "vid-123", res.MediaID)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid-123", res.URL)
	assert.Equal(t, dto.UploadStatusUploaded, res.Status)

	assert.Equal(t, "Launch video", gotMeta.Snippet.Title)
	assert.Equal(t, "public", gotMeta.Status.PrivacyStatus)
	assert.EqualValues(t, len("not really mpeg4"), putBody)
	assert.EqualValues(t, 0, tokens.refreshCalls)
}

func TestUploader_ScheduledForcesPrivate(t *testing.T) {
	var gotMeta ytapi.Video
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMeta))
		w.Header().Set("Location", srv.URL+"/session/sched")
	})
	mux.HandleFunc("/session/sched", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"vid-sched"}`))
	})

	tokens := &stubTokenSource{token: "at-1"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL + "/upload")

	req := uploadRequest(writeTempVideo(t))
	publishAt := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
	req.PublishAt = &publishAt

	res, err := u.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, dto.UploadStatusScheduled, res.Status)
	// Requested public, but scheduled videos go up private with a publish time
	assert.Equal(t, "private", gotMeta.Status.PrivacyStatus)
	assert.Equal(t, publishAt.Format(time.RFC3339), gotMeta.Status.PublishAt)
}

func TestUploader_MissingFileFailsBeforeNetwork(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	tokens := &stubTokenSource{token: "at-1"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL)

	_, err := u.Upload(context.Background(), uploadRequest(filepath.Join(t.TempDir(), "missing.mp4")))
	assert.Equal(t, model.ErrFileNotFound, model.CodeOf(err))
	assert.EqualValues(t, 0, atomic.LoadInt64(&calls))
	assert.EqualValues(t, 0, tokens.getCalls, "no token is resolved for a missing file")
}

func TestUploader_PersistentUnauthorizedIsTerminal(t *testing.T) {
	var initCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&initCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials","errors":[{"reason":"authError","message":"Invalid Credentials"}]}}`))
	}))
	defer srv.Close()

	tokens := &stubTokenSource{token: "at-bad", refreshed: "at-still-bad"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL)

	_, err := u.Upload(context.Background(), uploadRequest(writeTempVideo(t)))
	assert.Equal(t, model.ErrAuthDenied, model.CodeOf(err))
	// One original attempt plus exactly one retry after the forced refresh
	assert.EqualValues(t, 2, atomic.LoadInt64(&initCalls))
	assert.EqualValues(t, 1, tokens.refreshCalls)
}

func TestUploader_TransferRetriesOnceAfterRefresh(t *testing.T) {
	var putCalls int64
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", srv.URL+"/session/retry")
	})
	mux.HandleFunc("/session/retry", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&putCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials","errors":[{"reason":"authError"}]}}`))
			return
		}
		assert.Equal(t, "Bearer at-fresh", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"vid-retry"}`))
	})

	tokens := &stubTokenSource{token: "at-stale", refreshed: "at-fresh"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL + "/upload")

	res, err := u.Upload(context.Background(), uploadRequest(writeTempVideo(t)))
	require.NoError(t, err)
	assert.Equal(t, "vid-retry", res.MediaID)
	assert.EqualValues(t, 2, atomic.LoadInt64(&putCalls))
	assert.EqualValues(t, 1, tokens.refreshCalls)
}

func TestUploader_NoChannelMapsToPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The user is not enabled for YouTube.","errors":[{"reason":"youtubeSignupRequired","message":"The user is not enabled for YouTube."}]}}`))
	}))
	defer srv.Close()

	tokens := &stubTokenSource{token: "at-1"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL)

	_, err := u.Upload(context.Background(), uploadRequest(writeTempVideo(t)))
	assert.Equal(t, model.ErrPermissionDenied, model.CodeOf(err))

	var pe *model.PublishError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Advice, "channel")
}

func TestUploader_InvalidPublishAtMapsToSchedulingInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid publish time.","errors":[{"reason":"invalidPublishAt","message":"Invalid publish time."}]}}`))
	}))
	defer srv.Close()

	tokens := &stubTokenSource{token: "at-1"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL)

	_, err := u.Upload(context.Background(), uploadRequest(writeTempVideo(t)))
	assert.Equal(t, model.ErrSchedulingInvalid, model.CodeOf(err))
}

func TestUploader_DeadlineMapsToUploadIncomplete(t *testing.T) {
	// The deadline is already blown, so the session request never leaves
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	tokens := &stubTokenSource{token: "at-1"}
	u := youtube.NewUploader(tokens).WithEndpoint(srv.URL)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := u.Upload(ctx, uploadRequest(writeTempVideo(t)))
	assert.Equal(t, model.ErrUploadIncomplete, model.CodeOf(err))
}
