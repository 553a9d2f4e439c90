package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

// IOAuthToken is the key-value store of platform credentials per user. It is
// the single source of truth for a (user, platform) credential: the token
// lifecycle manager reads-then-writes through it on every refresh and holds
// no copy of its own.
type IOAuthToken interface {
	GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error)
	UpsertToken(ctx context.Context, t *model.OAuthToken) error
}

// ITokenSource produces a currently valid access token for a user,
// transparently refreshing when the stored one is expired or about to expire.
// ForceRefresh skips the expiry check; the upload client uses it when the
// provider rejects a token the store believed valid.
type ITokenSource interface {
	GetValidAccessToken(ctx context.Context, userID string) (string, error)
	ForceRefresh(ctx context.Context, userID string) (string, error)
}

// IOAuthState stores short-lived OAuth state nonces for the authorize flow.
// Consume is one-shot: it reports whether the state existed and removes it.
type IOAuthState interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}
