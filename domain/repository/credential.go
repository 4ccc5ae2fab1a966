package repository

import (
	"context"
	"errors"

	"social-integration/domain/model"
)

// ErrCredentialNotFound is returned by ICredential implementations when no row matches.
var ErrCredentialNotFound = errors.New("credential not found")

// ICredential persists platform credentials keyed by (identity, platform).
type ICredential interface {
	GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error)
	UpsertCredential(ctx context.Context, c *model.PlatformCredential) error
	// ReplaceCredential atomically swaps the stored row only if its access token still equals
	// previousAccessToken; it reports false when another writer got there first.
	ReplaceCredential(ctx context.Context, c *model.PlatformCredential, previousAccessToken string) (bool, error)
	DeleteCredential(ctx context.Context, identity model.Identity, platform model.Platform) error
	ListByIdentity(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error)
}

// ITokenRefresher exchanges a credential's refresh token for a new access token at the platform.
// A remote rejection of the refresh token must be reported as model.ErrReauthRequired.
type ITokenRefresher interface {
	Platform() model.Platform
	Refresh(ctx context.Context, c *model.PlatformCredential) (*model.PlatformCredential, error)
}
