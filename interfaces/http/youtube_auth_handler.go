package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/youtube"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	ytapi "google.golang.org/api/youtube/v3"
)

const stateTTL = 10 * time.Minute

// IYouTubeAuthHandler defines the interface for YouTube authentication handlers
type IYouTubeAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	HandleCallback(ctx *gin.Context)
	Status(ctx *gin.Context)
}

// YouTubeAuthHandler implements the YouTube OAuth2 connect flow. A successful
// callback persists the token pair so the publish pipeline can refresh on its
// own from then on.
type YouTubeAuthHandler struct {
	oauth2Config *oauth2.Config
	tokenStore   repository.IOAuthToken
	stateStore   repository.IOAuthState
}

// NewYouTubeAuthHandler creates a new YouTube auth handler
func NewYouTubeAuthHandler(tokenStore repository.IOAuthToken, stateStore repository.IOAuthState) (IYouTubeAuthHandler, error) {
	config, err := configuration.GetYouTubeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get YouTube config: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes: []string{
			ytapi.YoutubeScope,
			ytapi.YoutubeUploadScope,
			ytapi.YoutubeForceSslScope,
		},
		Endpoint: google.Endpoint,
	}

	return &YouTubeAuthHandler{
		oauth2Config: oauth2Config,
		tokenStore:   tokenStore,
		stateStore:   stateStore,
	}, nil
}

// GetAuthURL handles GET /auth/youtube
func (h *YouTubeAuthHandler) GetAuthURL(ctx *gin.Context) {
	state := randomState()
	if err := h.stateStore.Save(ctx.Request.Context(), state, stateTTL); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store oauth state"})
		return
	}

	authURL := h.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))

	ctx.JSON(http.StatusOK, gin.H{
		"auth_url": authURL,
		"state":    state,
	})
}

// HandleCallback handles GET /auth/youtube/callback
func (h *YouTubeAuthHandler) HandleCallback(ctx *gin.Context) {
	// Check for OAuth error first
	if errorParam := ctx.Query("error"); errorParam != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":       fmt.Sprintf("OAuth error: %s", errorParam),
			"description": ctx.Query("error_description"),
		})
		return
	}

	state := ctx.Query("state")
	if state == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "State parameter missing",
			"action": "Visit /auth/youtube to start over",
		})
		return
	}
	ok, err := h.stateStore.Consume(ctx.Request.Context(), state)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate oauth state"})
		return
	}
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "Authorization code not found",
		})
		return
	}

	// Exchange code for token
	token, err := h.oauth2Config.Exchange(ctx.Request.Context(), code)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to exchange code for token",
			"message": err.Error(),
		})
		return
	}

	userID := ctx.GetString("user_id")
	if userID == "" { // fallback for dev
		userID = "demo-user"
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		exp := token.Expiry.UTC()
		expiresAt = &exp
	}
	tok := &model.OAuthToken{
		UserID:       userID,
		Platform:     youtube.Platform,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
		Scopes:       strings.Join(h.oauth2Config.Scopes, " "),
	}
	if err := h.tokenStore.UpsertToken(ctx.Request.Context(), tok); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed to upsert youtube token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "store_token_failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"connected": true,
		"expires":   token.Expiry,
	})
}

// Status returns whether a YouTube token is stored for the user
func (h *YouTubeAuthHandler) Status(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		userID = "demo-user"
	}
	tok, err := h.tokenStore.GetToken(ctx.Request.Context(), userID, youtube.Platform)
	if err != nil || tok == nil || tok.AccessToken == "" {
		ctx.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	resp := gin.H{"connected": true, "has_refresh_token": tok.RefreshToken != ""}
	if tok.ExpiresAt != nil {
		resp["expires_at"] = tok.ExpiresAt
	}
	ctx.JSON(http.StatusOK, resp)
}

// randomState generates a random state parameter for OAuth2
func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
