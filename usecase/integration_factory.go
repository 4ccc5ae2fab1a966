package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/logger"

	"golang.org/x/sync/singleflight"
)

// IntegrationBuilder constructs an adapter for identity. tokens yields a valid credential per request.
// Builders report missing configuration as model.ErrConfiguration.
type IntegrationBuilder func(ctx context.Context, identity model.Identity, tokens remote.TokenSource) (repository.IIntegration, error)

type IIntegrationFactory interface {
	Resolve(ctx context.Context, platform model.Platform, identity model.Identity) (repository.IIntegration, error)
	Invalidate(platform model.Platform, identity model.Identity)
	Clear()
	Platforms() []model.Platform
	// Capabilities describes every registered platform without touching credentials.
	Capabilities(ctx context.Context) []PlatformInfo
}

// PlatformInfo is a capability listing entry; Configured is false when the builder rejects the configuration.
type PlatformInfo struct {
	repository.Capabilities
	Configured bool   `json:"configured"`
	Error      string `json:"error,omitempty"`
}

// cachedIntegration is stored by value; readers get a copy taken under mu.
type cachedIntegration struct {
	integration repository.IIntegration
	verifiedAt  time.Time
	generation  uint64
}

type integrationFactory struct {
	builders    map[model.Platform]IntegrationBuilder
	tokens      ITokenManager
	verifyAfter time.Duration
	now         func() time.Time
	flight      singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedIntegration
	// generations advance on Invalidate; epoch advances on Clear. A build only caches its adapter
	// when neither moved while it ran.
	generations map[string]uint64
	epoch       uint64
}

// NewIntegrationFactory caches one adapter per (platform, identity). A positive verifyAfter re-checks
// cached adapters with VerifyAuth once they are older than that.
func NewIntegrationFactory(builders map[model.Platform]IntegrationBuilder, tokens ITokenManager, verifyAfter time.Duration) IIntegrationFactory {
	return &integrationFactory{
		builders:    builders,
		tokens:      tokens,
		verifyAfter: verifyAfter,
		now:         time.Now,
		cache:       make(map[string]cachedIntegration),
		generations: make(map[string]uint64),
	}
}

func cacheKey(platform model.Platform, identity model.Identity) string {
	return string(platform) + "|" + string(identity)
}

func (f *integrationFactory) Resolve(ctx context.Context, platform model.Platform, identity model.Identity) (repository.IIntegration, error) {
	build, ok := f.builders[platform]
	if !ok {
		return nil, model.NewError(model.KindUnsupportedPlatform, platform, "platform is not supported", nil)
	}
	if identity == "" {
		return nil, model.NewError(model.KindValidation, platform, "identity is required", nil)
	}
	key := cacheKey(platform, identity)
	if entry, ok := f.lookup(key); ok && f.fresh(entry) {
		return entry.integration, nil
	}

	v, err, _ := f.flight.Do(key, func() (any, error) {
		entry, ok := f.lookup(key)
		if ok && f.fresh(entry) {
			return entry.integration, nil
		}
		if ok && f.reverify(ctx, key, platform, identity, entry) {
			return entry.integration, nil
		}
		return f.build(ctx, key, platform, identity, build)
	})
	if err != nil {
		return nil, err
	}
	return v.(repository.IIntegration), nil
}

func (f *integrationFactory) lookup(key string) (cachedIntegration, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.cache[key]
	return entry, ok
}

// stamp combines the key generation with the clear epoch. Callers hold mu.
func (f *integrationFactory) stamp(key string) uint64 {
	return f.epoch<<32 | f.generations[key]
}

func (f *integrationFactory) fresh(entry cachedIntegration) bool {
	return f.verifyAfter <= 0 || f.now().Sub(entry.verifiedAt) < f.verifyAfter
}

func (f *integrationFactory) reverify(ctx context.Context, key string, platform model.Platform, identity model.Identity, entry cachedIntegration) bool {
	ok, err := entry.integration.VerifyAuth(ctx)
	if ok && err == nil {
		f.mu.Lock()
		if cur, found := f.cache[key]; found && cur.generation == entry.generation {
			cur.verifiedAt = f.now()
			f.cache[key] = cur
		}
		f.mu.Unlock()
		return true
	}
	logger.GetLogger().WithField("platform", platform).WithField("identity", identity).WithField("error", err).
		Info("cached integration failed verification, rebuilding")
	f.Invalidate(platform, identity)
	return false
}

func (f *integrationFactory) build(ctx context.Context, key string, platform model.Platform, identity model.Identity, build IntegrationBuilder) (repository.IIntegration, error) {
	f.mu.RLock()
	started := f.stamp(key)
	f.mu.RUnlock()

	if _, err := f.tokens.GetCredential(ctx, identity, platform); err != nil {
		return nil, model.WithPlatform(err, platform)
	}
	in, err := build(ctx, identity, f.tokens.Token(identity, platform))
	if err != nil {
		var ie *model.IntegrationError
		if errors.As(err, &ie) {
			return nil, model.WithPlatform(err, platform)
		}
		return nil, model.NewError(model.KindConfiguration, platform, "failed to build integration", err)
	}

	f.mu.Lock()
	cached := f.stamp(key) == started
	if cached {
		f.cache[key] = cachedIntegration{integration: in, verifiedAt: f.now(), generation: started}
	}
	f.mu.Unlock()
	if !cached {
		logger.GetLogger().WithField("platform", platform).WithField("identity", identity).
			Debug("integration invalidated while building, not cached")
		return in, nil
	}
	logger.GetLogger().WithField("platform", platform).WithField("identity", identity).Debug("integration built")
	return in, nil
}

func (f *integrationFactory) Invalidate(platform model.Platform, identity model.Identity) {
	key := cacheKey(platform, identity)
	f.mu.Lock()
	delete(f.cache, key)
	f.generations[key]++
	f.mu.Unlock()
}

func (f *integrationFactory) Clear() {
	f.mu.Lock()
	f.cache = make(map[string]cachedIntegration)
	f.generations = make(map[string]uint64)
	f.epoch++
	f.mu.Unlock()
}

func (f *integrationFactory) Platforms() []model.Platform {
	out := make([]model.Platform, 0, len(f.builders))
	for p := range f.builders {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var errNoCredential = model.NewError(model.KindReauthRequired, "", "capability probe has no credential", nil)

func (f *integrationFactory) Capabilities(ctx context.Context) []PlatformInfo {
	probe := remote.TokenSourceFunc(func(context.Context) (*model.PlatformCredential, error) { return nil, errNoCredential })
	out := make([]PlatformInfo, 0, len(f.builders))
	for _, p := range f.Platforms() {
		info := PlatformInfo{Capabilities: repository.Capabilities{Platform: p}}
		in, err := f.builders[p](ctx, model.SystemIdentity, probe)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Capabilities = repository.CapabilitiesOf(in)
			info.Configured = true
		}
		out = append(out, info)
	}
	return out
}
