package youtube

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2/google"
)

// Platform is the token store key for YouTube credentials.
const Platform = "youtube"

// defaultRefreshWindow refreshes tokens that expire within this window. The
// upload that follows can run for minutes; starting it with a token about to
// die would kill the transfer mid-flight. Tunable per provider via
// WithRefreshWindow.
const defaultRefreshWindow = 5 * time.Minute

// TokenManager produces currently valid access tokens for a user, refreshing
// through the provider's token endpoint when needed. The store adapter keeps
// the only durable copy; every successful refresh is written back through it.
type TokenManager struct {
	store         repository.IOAuthToken
	clientID      string
	clientSecret  string
	tokenURL      string
	httpClient    *http.Client
	refreshWindow time.Duration
}

// NewTokenManager creates a token manager against Google's token endpoint.
func NewTokenManager(store repository.IOAuthToken, clientID, clientSecret string) *TokenManager {
	return &TokenManager{
		store:         store,
		clientID:      clientID,
		clientSecret:  clientSecret,
		tokenURL:      google.Endpoint.TokenURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		refreshWindow: defaultRefreshWindow,
	}
}

// WithTokenURL overrides the token endpoint (fluent, used by tests).
func (m *TokenManager) WithTokenURL(u string) *TokenManager {
	m.tokenURL = u
	return m
}

// WithRefreshWindow overrides the pre-expiry refresh window (fluent).
func (m *TokenManager) WithRefreshWindow(d time.Duration) *TokenManager {
	if d > 0 {
		m.refreshWindow = d
	}
	return m
}

var _ repository.ITokenSource = (*TokenManager)(nil)

// GetValidAccessToken returns the stored access token when it is still
// comfortably valid, refreshing it first otherwise. The common path makes no
// network call.
func (m *TokenManager) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	tok, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if !tok.ExpiresSoon(time.Now().UTC(), m.refreshWindow) {
		return tok.AccessToken, nil
	}
	return m.refresh(ctx, tok)
}

// ForceRefresh refreshes unconditionally. The upload client calls this when
// the provider rejects a token the store believed valid (clock skew,
// provider-side revocation).
func (m *TokenManager) ForceRefresh(ctx context.Context, userID string) (string, error) {
	tok, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return m.refresh(ctx, tok)
}

func (m *TokenManager) load(ctx context.Context, userID string) (*model.OAuthToken, error) {
	tok, err := m.store.GetToken(ctx, userID, Platform)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewPublishError(model.ErrNoCredential, fmt.Sprintf("no youtube credential stored for user %s", userID))
		}
		return nil, fmt.Errorf("failed to load youtube credential: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, model.NewPublishError(model.ErrNoCredential, fmt.Sprintf("no youtube credential stored for user %s", userID))
	}
	return tok, nil
}

// refreshGrant is the form body of a refresh_token grant.
type refreshGrant struct {
	ClientID     string `url:"client_id"`
	ClientSecret string `url:"client_secret"`
	RefreshToken string `url:"refresh_token"`
	GrantType    string `url:"grant_type"`
}

func (m *TokenManager) refresh(ctx context.Context, tok *model.OAuthToken) (string, error) {
	if tok.RefreshToken == "" {
		return "", model.NewPublishError(model.ErrRefreshFailed, "no refresh token stored")
	}

	form, err := query.Values(refreshGrant{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		RefreshToken: tok.RefreshToken,
		GrantType:    "refresh_token",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", model.WrapPublishError(model.ErrRefreshFailed, "token refresh request failed", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// The provider's error payload passes through verbatim so the caller
		// can show it when telling the user to reconnect.
		return "", model.NewPublishError(model.ErrRefreshFailed, string(body))
	}

	var tr dto.TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", model.WrapPublishError(model.ErrRefreshFailed, "unparseable token response", err)
	}
	if tr.AccessToken == "" {
		return "", model.NewPublishError(model.ErrRefreshFailed, "token response missing access_token")
	}

	expiresAt := time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second)
	tok.AccessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		tok.RefreshToken = tr.RefreshToken
	}
	tok.ExpiresAt = &expiresAt
	if err := m.store.UpsertToken(ctx, tok); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	logger.GetLogger().
		WithField("user_id", tok.UserID).
		WithField("expires_at", expiresAt.Format(time.RFC3339)).
		Info("Access token refreshed")
	return tr.AccessToken, nil
}
