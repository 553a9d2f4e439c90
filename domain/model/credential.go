package model

import "time"

// OAuthToken stores platform OAuth credentials per user.
// ExpiresAt == nil means the access token's expiry is unknown (legacy rows);
// callers treat such tokens as valid until the provider says otherwise.
type OAuthToken struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Platform     string     `json:"platform"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Scopes       string     `json:"scopes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Expired reports whether the access token is past its absolute expiry at now.
func (t *OAuthToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// ExpiresSoon reports whether the access token expires within the given window.
// A long upload started with a nearly-dead token would die mid-transfer, so
// callers refresh proactively when this returns true.
func (t *OAuthToken) ExpiresSoon(now time.Time, window time.Duration) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now.Add(window))
}
