package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
)

const credentialColumns = `id, owner_id, platform, access_token, refresh_token, expires_at, account_id, account_name, scopes, created_at, updated_at`

// EnsureCredentialSchema creates the platform_credentials table on PostgreSQL.
func EnsureCredentialSchema(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS platform_credentials (
	id BIGSERIAL PRIMARY KEY,
	owner_id TEXT NOT NULL,
	platform TEXT NOT NULL,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	expires_at TIMESTAMPTZ NULL,
	account_id TEXT NOT NULL DEFAULT '',
	account_name TEXT NOT NULL DEFAULT '',
	scopes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (owner_id, platform)
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create platform_credentials: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*model.PlatformCredential, error) {
	c := &model.PlatformCredential{}
	var identity, platform string
	var exp sql.NullTime
	if err := row.Scan(&c.ID, &identity, &platform, &c.AccessToken, &c.RefreshToken, &exp,
		&c.AccountID, &c.AccountName, &c.Scopes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrCredentialNotFound
		}
		return nil, err
	}
	c.Identity = model.Identity(identity)
	c.Platform = model.Platform(platform)
	if exp.Valid {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func stamp(c *model.PlatformCredential) {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

type CredentialRepository struct{ db *sql.DB }

func NewCredentialRepository(db *sql.DB) repository.ICredential {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM platform_credentials WHERE owner_id=$1 AND platform=$2`, identity, platform)
	return scanCredential(row)
}

func (r *CredentialRepository) UpsertCredential(ctx context.Context, c *model.PlatformCredential) error {
	stamp(c)
	q := `INSERT INTO platform_credentials (owner_id, platform, access_token, refresh_token, expires_at, account_id, account_name, scopes, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		  ON CONFLICT (owner_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			account_id=EXCLUDED.account_id,
			account_name=EXCLUDED.account_name,
			scopes=EXCLUDED.scopes,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, c.Identity, c.Platform, c.AccessToken, c.RefreshToken, nullTime(c.ExpiresAt),
		c.AccountID, c.AccountName, c.Scopes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) ReplaceCredential(ctx context.Context, c *model.PlatformCredential, previousAccessToken string) (bool, error) {
	c.UpdatedAt = time.Now().UTC()
	q := `UPDATE platform_credentials SET access_token=$3, refresh_token=$4, expires_at=$5, account_id=$6, account_name=$7, scopes=$8, updated_at=$9
		  WHERE owner_id=$1 AND platform=$2 AND access_token=$10`
	res, err := r.db.ExecContext(ctx, q, c.Identity, c.Platform, c.AccessToken, c.RefreshToken, nullTime(c.ExpiresAt),
		c.AccountID, c.AccountName, c.Scopes, c.UpdatedAt, previousAccessToken)
	if err != nil {
		return false, fmt.Errorf("replace credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *CredentialRepository) DeleteCredential(ctx context.Context, identity model.Identity, platform model.Platform) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM platform_credentials WHERE owner_id=$1 AND platform=$2`, identity, platform)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return affectedOrNotFound(res)
}

func (r *CredentialRepository) ListByIdentity(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+` FROM platform_credentials WHERE owner_id=$1 ORDER BY platform`, identity)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return collectCredentials(rows)
}

func collectCredentials(rows *sql.Rows) ([]*model.PlatformCredential, error) {
	defer rows.Close()
	var out []*model.PlatformCredential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrCredentialNotFound
	}
	return nil
}
