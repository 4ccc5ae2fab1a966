package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/logger"

	"golang.org/x/sync/singleflight"
)

const refreshTimeout = 30 * time.Second

// ITokenManager is the only writer of platform credentials. It hands out credentials that are valid
// at the time of the call, refreshing them when they are expired or about to expire.
type ITokenManager interface {
	GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error)
	Connect(ctx context.Context, cred *model.PlatformCredential) error
	Disconnect(ctx context.Context, identity model.Identity, platform model.Platform) error
	ListConnections(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error)
	Token(identity model.Identity, platform model.Platform) remote.TokenSource
}

type tokenManager struct {
	store      repository.ICredential
	refreshers map[model.Platform]repository.ITokenRefresher
	skew       time.Duration
	now        func() time.Time
	flight     singleflight.Group

	mu     sync.RWMutex
	system map[model.Platform]*model.PlatformCredential
}

// NewTokenManager wires the credential store, one refresher per platform and the configuration-sourced
// system credentials. skew is how long before expiry a refresh is attempted.
func NewTokenManager(store repository.ICredential, refreshers []repository.ITokenRefresher, system []*model.PlatformCredential, skew time.Duration) ITokenManager {
	m := &tokenManager{
		store:      store,
		refreshers: make(map[model.Platform]repository.ITokenRefresher, len(refreshers)),
		skew:       skew,
		now:        time.Now,
		system:     make(map[model.Platform]*model.PlatformCredential),
	}
	for _, r := range refreshers {
		m.refreshers[r.Platform()] = r
	}
	for _, c := range system {
		if c == nil || c.AccessToken == "" {
			continue
		}
		cp := c.Clone()
		cp.Identity = model.SystemIdentity
		m.system[cp.Platform] = cp
	}
	return m
}

func flightKey(identity model.Identity, platform model.Platform) string {
	return string(identity) + "|" + string(platform)
}

func (m *tokenManager) Token(identity model.Identity, platform model.Platform) remote.TokenSource {
	return remote.TokenSourceFunc(func(ctx context.Context) (*model.PlatformCredential, error) {
		return m.GetCredential(ctx, identity, platform)
	})
}

func (m *tokenManager) GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	cred, err := m.load(ctx, identity, platform)
	if err != nil {
		return nil, err
	}
	now := m.now()
	if !cred.ExpiresWithin(now, m.skew) {
		return cred, nil
	}

	fresh, err := m.refresh(ctx, identity, platform)
	if err == nil {
		return fresh, nil
	}
	if !cred.Expired(now) && !errors.Is(err, errCredentialDropped) {
		logger.GetLogger().WithField("identity", identity).WithField("platform", platform).WithField("error", err).
			Warn("early token refresh failed, serving the current token")
		return cred, nil
	}
	return nil, err
}

var errCredentialDropped = errors.New("credential dropped after rejected refresh")

func (m *tokenManager) load(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	if identity.IsSystem() {
		m.mu.RLock()
		defer m.mu.RUnlock()
		c, ok := m.system[platform]
		if !ok {
			return nil, model.NewError(model.KindConfiguration, platform, "no system credential configured", nil)
		}
		return c.Clone(), nil
	}
	c, err := m.store.GetCredential(ctx, identity, platform)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return nil, model.NewError(model.KindReauthRequired, platform, "account is not connected", nil)
	}
	if err != nil {
		return nil, model.NewError(model.KindInternal, platform, "load credential", err)
	}
	return c, nil
}

// refresh runs at most one refresh per (identity, platform) at a time; concurrent callers share its result.
func (m *tokenManager) refresh(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	v, err, _ := m.flight.Do(flightKey(identity, platform), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return m.refreshLocked(fctx, identity, platform)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.PlatformCredential).Clone(), nil
}

func (m *tokenManager) refreshLocked(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	log := logger.GetLogger().WithField("identity", identity).WithField("platform", platform)

	current, err := m.load(ctx, identity, platform)
	if err != nil {
		return nil, err
	}
	if !current.ExpiresWithin(m.now(), m.skew) {
		return current, nil
	}
	if current.RefreshToken == "" {
		return nil, model.NewError(model.KindReauthRequired, platform, "token expired and no refresh token is stored", nil)
	}
	r, ok := m.refreshers[platform]
	if !ok {
		return nil, model.NewError(model.KindReauthRequired, platform, "token expired and the platform has no refresh flow", nil)
	}

	next, err := r.Refresh(ctx, current.Clone())
	if err != nil {
		switch model.KindOf(err) {
		case model.KindConfiguration:
			return nil, err
		case model.KindReauthRequired, model.KindRemoteRejection:
			log.WithField("error", err).Warn("refresh token rejected, dropping credential")
			m.drop(ctx, identity, platform)
			return nil, model.NewError(model.KindReauthRequired, platform, "refresh rejected", errors.Join(errCredentialDropped, err))
		}
		return nil, model.NewError(model.KindReauthRequired, platform, "token refresh failed", err)
	}
	next.Identity = identity
	next.Platform = platform
	if next.Expired(m.now()) {
		return nil, model.NewError(model.KindReauthRequired, platform, "platform returned an expired token", nil)
	}

	stored, err := m.replace(ctx, next, current.AccessToken)
	if err != nil {
		return nil, err
	}
	log.WithField("expires_at", stored.ExpiresAt).Info("token refreshed")
	return stored, nil
}

// replace stores next only if the stored token is still previous; otherwise the winner's credential is returned.
func (m *tokenManager) replace(ctx context.Context, next *model.PlatformCredential, previous string) (*model.PlatformCredential, error) {
	if next.Identity.IsSystem() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.system[next.Platform]; ok && cur.AccessToken != previous {
			return cur.Clone(), nil
		}
		m.system[next.Platform] = next.Clone()
		return next, nil
	}

	swapped, err := m.store.ReplaceCredential(ctx, next, previous)
	if err != nil {
		return nil, model.NewError(model.KindInternal, next.Platform, "store refreshed credential", err)
	}
	if swapped {
		return next, nil
	}
	winner, err := m.store.GetCredential(ctx, next.Identity, next.Platform)
	if err != nil {
		return nil, model.NewError(model.KindReauthRequired, next.Platform, "credential changed during refresh", err)
	}
	return winner, nil
}

func (m *tokenManager) drop(ctx context.Context, identity model.Identity, platform model.Platform) {
	if identity.IsSystem() {
		m.mu.Lock()
		delete(m.system, platform)
		m.mu.Unlock()
		return
	}
	if err := m.store.DeleteCredential(ctx, identity, platform); err != nil && !errors.Is(err, repository.ErrCredentialNotFound) {
		logger.GetLogger().WithField("identity", identity).WithField("platform", platform).WithField("error", err).Error("failed to delete rejected credential")
	}
}

func (m *tokenManager) Connect(ctx context.Context, cred *model.PlatformCredential) error {
	if cred == nil || cred.AccessToken == "" {
		return model.NewError(model.KindValidation, "", "access token is required", nil)
	}
	if cred.Identity == "" || cred.Identity.IsSystem() {
		return model.NewError(model.KindValidation, cred.Platform, "a user identity is required to connect an account", nil)
	}
	now := m.now().UTC()
	c := cred.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if err := m.store.UpsertCredential(ctx, c); err != nil {
		return model.NewError(model.KindInternal, c.Platform, "store credential", err)
	}
	logger.GetLogger().WithField("identity", c.Identity).WithField("platform", c.Platform).WithField("account_id", c.AccountID).Info("account connected")
	return nil
}

func (m *tokenManager) Disconnect(ctx context.Context, identity model.Identity, platform model.Platform) error {
	if identity.IsSystem() {
		return model.NewError(model.KindValidation, platform, "system credentials are managed by configuration", nil)
	}
	err := m.store.DeleteCredential(ctx, identity, platform)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return nil
	}
	if err != nil {
		return model.NewError(model.KindInternal, platform, "delete credential", err)
	}
	return nil
}

func (m *tokenManager) ListConnections(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error) {
	if identity.IsSystem() {
		m.mu.RLock()
		defer m.mu.RUnlock()
		out := make([]*model.PlatformCredential, 0, len(m.system))
		for _, c := range m.system {
			out = append(out, c.Clone())
		}
		return out, nil
	}
	list, err := m.store.ListByIdentity(ctx, identity)
	if err != nil {
		return nil, model.NewError(model.KindInternal, "", "list credentials", err)
	}
	return list, nil
}
