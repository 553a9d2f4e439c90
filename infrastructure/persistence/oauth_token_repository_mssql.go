package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"social-publisher/domain/model"
)

// OAuthTokenRepositoryMSSQL is the SQL Server flavour of the token store
// adapter, used when the configured database driver is sqlserver.
type OAuthTokenRepositoryMSSQL struct{ db *sql.DB }

func NewOAuthTokenRepositoryMSSQL(db *sql.DB) *OAuthTokenRepositoryMSSQL {
	return &OAuthTokenRepositoryMSSQL{db: db}
}

func EnsureOAuthTokenSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='oauth_tokens' AND xtype='U')
	CREATE TABLE oauth_tokens (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(128) NOT NULL,
		platform NVARCHAR(32) NOT NULL,
		access_token NVARCHAR(MAX) NOT NULL,
		refresh_token NVARCHAR(MAX) NOT NULL DEFAULT '',
		expires_at DATETIMEOFFSET NULL,
		scopes NVARCHAR(MAX) NOT NULL DEFAULT '',
		created_at DATETIMEOFFSET NOT NULL,
		updated_at DATETIMEOFFSET NOT NULL,
		CONSTRAINT uq_oauth_tokens_user_platform UNIQUE (user_id, platform)
	)`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create oauth_tokens: %w", err)
	}
	return nil
}

func (r *OAuthTokenRepositoryMSSQL) UpsertToken(ctx context.Context, t *model.OAuthToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	q := `MERGE oauth_tokens AS target
	USING (SELECT @p1 AS user_id, @p2 AS platform) AS source
	ON target.user_id = source.user_id AND target.platform = source.platform
	WHEN MATCHED THEN UPDATE SET
		access_token = @p3,
		refresh_token = @p4,
		expires_at = @p5,
		scopes = @p6,
		updated_at = @p8
	WHEN NOT MATCHED THEN INSERT (user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at)
		VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8);`
	_, err := r.db.ExecContext(ctx, q, t.UserID, t.Platform, t.AccessToken, t.RefreshToken, t.ExpiresAt, t.Scopes, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *OAuthTokenRepositoryMSSQL) GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, created_at, updated_at FROM oauth_tokens WHERE user_id=@p1 AND platform=@p2`, userID, platform)
	tok := &model.OAuthToken{}
	var exp sql.NullTime
	if err := row.Scan(&tok.ID, &tok.UserID, &tok.Platform, &tok.AccessToken, &tok.RefreshToken, &exp, &tok.Scopes, &tok.CreatedAt, &tok.UpdatedAt); err != nil {
		return nil, err
	}
	if exp.Valid {
		tok.ExpiresAt = &exp.Time
	}
	return tok, nil
}
