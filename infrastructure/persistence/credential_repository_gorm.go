package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// credentialRecord is the gorm row of platform_credentials on MySQL.
type credentialRecord struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	OwnerID      string     `gorm:"size:128;not null;uniqueIndex:ux_owner_platform"`
	Platform     string     `gorm:"size:32;not null;uniqueIndex:ux_owner_platform"`
	AccessToken  string     `gorm:"type:text;not null"`
	RefreshToken string     `gorm:"type:text"`
	ExpiresAt    *time.Time `gorm:"null"`
	AccountID    string     `gorm:"size:128"`
	AccountName  string     `gorm:"size:255"`
	Scopes       string     `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (credentialRecord) TableName() string { return "platform_credentials" }

func toRecord(c *model.PlatformCredential) *credentialRecord {
	rec := &credentialRecord{
		ID:           c.ID,
		OwnerID:      string(c.Identity),
		Platform:     string(c.Platform),
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		AccountID:    c.AccountID,
		AccountName:  c.AccountName,
		Scopes:       c.Scopes,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if !c.ExpiresAt.IsZero() {
		exp := c.ExpiresAt.UTC()
		rec.ExpiresAt = &exp
	}
	return rec
}

func (r *credentialRecord) toModel() *model.PlatformCredential {
	c := &model.PlatformCredential{
		ID:           r.ID,
		Identity:     model.Identity(r.OwnerID),
		Platform:     model.Platform(r.Platform),
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		AccountID:    r.AccountID,
		AccountName:  r.AccountName,
		Scopes:       r.Scopes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ExpiresAt != nil {
		c.ExpiresAt = *r.ExpiresAt
	}
	return c
}

type CredentialRepositoryGorm struct{ db *gorm.DB }

func NewCredentialRepositoryGorm(db *gorm.DB) repository.ICredential {
	return &CredentialRepositoryGorm{db: db}
}

func EnsureCredentialSchemaGorm(db *gorm.DB) error {
	if err := db.AutoMigrate(&credentialRecord{}); err != nil {
		return fmt.Errorf("migrate platform_credentials: %w", err)
	}
	return nil
}

func (r *CredentialRepositoryGorm) GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	var rec credentialRecord
	err := r.db.WithContext(ctx).Where("owner_id = ? AND platform = ?", string(identity), string(platform)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (r *CredentialRepositoryGorm) UpsertCredential(ctx context.Context, c *model.PlatformCredential) error {
	stamp(c)
	rec := toRecord(c)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "account_id", "account_name", "scopes", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("upsert credential (mysql): %w", err)
	}
	if rec.ID != 0 {
		c.ID = rec.ID
	}
	return nil
}

func (r *CredentialRepositoryGorm) ReplaceCredential(ctx context.Context, c *model.PlatformCredential, previousAccessToken string) (bool, error) {
	c.UpdatedAt = time.Now().UTC()
	rec := toRecord(c)
	res := r.db.WithContext(ctx).Model(&credentialRecord{}).
		Where("owner_id = ? AND platform = ? AND access_token = ?", rec.OwnerID, rec.Platform, previousAccessToken).
		Updates(map[string]any{
			"access_token":  rec.AccessToken,
			"refresh_token": rec.RefreshToken,
			"expires_at":    rec.ExpiresAt,
			"account_id":    rec.AccountID,
			"account_name":  rec.AccountName,
			"scopes":        rec.Scopes,
			"updated_at":    rec.UpdatedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("replace credential (mysql): %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *CredentialRepositoryGorm) DeleteCredential(ctx context.Context, identity model.Identity, platform model.Platform) error {
	res := r.db.WithContext(ctx).Where("owner_id = ? AND platform = ?", string(identity), string(platform)).Delete(&credentialRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete credential (mysql): %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}
	return nil
}

func (r *CredentialRepositoryGorm) ListByIdentity(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error) {
	var recs []credentialRecord
	if err := r.db.WithContext(ctx).Where("owner_id = ?", string(identity)).Order("platform").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list credentials (mysql): %w", err)
	}
	out := make([]*model.PlatformCredential, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toModel())
	}
	return out, nil
}
