package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
)

type CredentialRepositoryMSSQL struct{ db *sql.DB }

func NewCredentialRepositoryMSSQL(db *sql.DB) repository.ICredential {
	return &CredentialRepositoryMSSQL{db: db}
}

// EnsureCredentialSchemaMSSQL creates dbo.platform_credentials when missing.
func EnsureCredentialSchemaMSSQL(ctx context.Context, db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.platform_credentials') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[platform_credentials] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        owner_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NOT NULL DEFAULT '',
        expires_at DATETIME2 NULL,
        account_id NVARCHAR(128) NOT NULL DEFAULT '',
        account_name NVARCHAR(255) NOT NULL DEFAULT '',
        scopes NVARCHAR(MAX) NOT NULL DEFAULT '',
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_platform_credentials_owner_platform ON dbo.[platform_credentials](owner_id, platform);
END`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create platform_credentials (mssql): %w", err)
	}
	return nil
}

func (r *CredentialRepositoryMSSQL) GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM dbo.[platform_credentials] WHERE owner_id=@p1 AND platform=@p2`, string(identity), string(platform))
	return scanCredential(row)
}

func (r *CredentialRepositoryMSSQL) UpsertCredential(ctx context.Context, c *model.PlatformCredential) error {
	stamp(c)
	q := `MERGE dbo.[platform_credentials] AS target
USING (VALUES (@p1, @p2)) AS src(owner_id, platform)
ON target.owner_id = src.owner_id AND target.platform = src.platform
WHEN MATCHED THEN UPDATE SET
    access_token=@p3,
    refresh_token=@p4,
    expires_at=@p5,
    account_id=@p6,
    account_name=@p7,
    scopes=@p8,
    updated_at=@p10
WHEN NOT MATCHED THEN
    INSERT (owner_id, platform, access_token, refresh_token, expires_at, account_id, account_name, scopes, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10);`
	_, err := r.db.ExecContext(ctx, q, string(c.Identity), string(c.Platform), c.AccessToken, c.RefreshToken,
		nullTime(c.ExpiresAt), c.AccountID, c.AccountName, c.Scopes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert credential (mssql): %w", err)
	}
	return nil
}

func (r *CredentialRepositoryMSSQL) ReplaceCredential(ctx context.Context, c *model.PlatformCredential, previousAccessToken string) (bool, error) {
	c.UpdatedAt = time.Now().UTC()
	q := `UPDATE dbo.[platform_credentials] SET access_token=@p3, refresh_token=@p4, expires_at=@p5, account_id=@p6, account_name=@p7, scopes=@p8, updated_at=@p9
WHERE owner_id=@p1 AND platform=@p2 AND access_token=@p10`
	res, err := r.db.ExecContext(ctx, q, string(c.Identity), string(c.Platform), c.AccessToken, c.RefreshToken,
		nullTime(c.ExpiresAt), c.AccountID, c.AccountName, c.Scopes, c.UpdatedAt, previousAccessToken)
	if err != nil {
		return false, fmt.Errorf("replace credential (mssql): %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *CredentialRepositoryMSSQL) DeleteCredential(ctx context.Context, identity model.Identity, platform model.Platform) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[platform_credentials] WHERE owner_id=@p1 AND platform=@p2`, string(identity), string(platform))
	if err != nil {
		return fmt.Errorf("delete credential (mssql): %w", err)
	}
	return affectedOrNotFound(res)
}

func (r *CredentialRepositoryMSSQL) ListByIdentity(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+` FROM dbo.[platform_credentials] WHERE owner_id=@p1 ORDER BY platform`, string(identity))
	if err != nil {
		return nil, fmt.Errorf("list credentials (mssql): %w", err)
	}
	return collectCredentials(rows)
}
