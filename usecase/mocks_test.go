package usecase_test

import (
	"context"
	"sync"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/usecase"

	"github.com/stretchr/testify/mock"
)

type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	args := m.Called(ctx, identity, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformCredential).Clone(), args.Error(1)
}

func (m *MockCredentialRepository) UpsertCredential(ctx context.Context, c *model.PlatformCredential) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCredentialRepository) ReplaceCredential(ctx context.Context, c *model.PlatformCredential, previous string) (bool, error) {
	args := m.Called(ctx, c, previous)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialRepository) DeleteCredential(ctx context.Context, identity model.Identity, platform model.Platform) error {
	return m.Called(ctx, identity, platform).Error(0)
}

func (m *MockCredentialRepository) ListByIdentity(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PlatformCredential), args.Error(1)
}

type MockRefresher struct {
	mock.Mock
	platform model.Platform
}

func (m *MockRefresher) Platform() model.Platform { return m.platform }

func (m *MockRefresher) Refresh(ctx context.Context, c *model.PlatformCredential) (*model.PlatformCredential, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformCredential).Clone(), args.Error(1)
}

// memStore is an in-memory credential store with compare-and-swap semantics.
type memStore struct {
	mu    sync.Mutex
	creds map[string]*model.PlatformCredential
}

func newMemStore(creds ...*model.PlatformCredential) *memStore {
	s := &memStore{creds: map[string]*model.PlatformCredential{}}
	for _, c := range creds {
		s.creds[string(c.Identity)+"|"+string(c.Platform)] = c.Clone()
	}
	return s
}

func (s *memStore) GetCredential(_ context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[string(identity)+"|"+string(platform)]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}
	return c.Clone(), nil
}

func (s *memStore) UpsertCredential(_ context.Context, c *model.PlatformCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[string(c.Identity)+"|"+string(c.Platform)] = c.Clone()
	return nil
}

func (s *memStore) ReplaceCredential(_ context.Context, c *model.PlatformCredential, previous string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(c.Identity) + "|" + string(c.Platform)
	cur, ok := s.creds[key]
	if !ok || cur.AccessToken != previous {
		return false, nil
	}
	s.creds[key] = c.Clone()
	return true, nil
}

func (s *memStore) DeleteCredential(_ context.Context, identity model.Identity, platform model.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(identity) + "|" + string(platform)
	if _, ok := s.creds[key]; !ok {
		return repository.ErrCredentialNotFound
	}
	delete(s.creds, key)
	return nil
}

func (s *memStore) ListByIdentity(_ context.Context, identity model.Identity) ([]*model.PlatformCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.PlatformCredential
	for _, c := range s.creds {
		if c.Identity == identity {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

type MockIntegration struct {
	mock.Mock
	platform model.Platform
}

func (m *MockIntegration) Platform() model.Platform { return m.platform }

func (m *MockIntegration) Publish(ctx context.Context, req *model.PublishRequest) *model.PublishResult {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.PublishResult)
}

func (m *MockIntegration) Update(ctx context.Context, postID string, req *model.PublishRequest) *model.PublishResult {
	args := m.Called(ctx, postID, req)
	return args.Get(0).(*model.PublishResult)
}

func (m *MockIntegration) Delete(ctx context.Context, postID string) (bool, error) {
	args := m.Called(ctx, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIntegration) GetMetrics(ctx context.Context, postID string) (*model.Metrics, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Metrics), args.Error(1)
}

func (m *MockIntegration) VerifyAuth(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// MockMessenger is a MockIntegration that also implements every messaging capability.
type MockMessenger struct {
	MockIntegration
}

func (m *MockMessenger) SendMessage(ctx context.Context, recipientID, text string) (*model.MessageResult, error) {
	args := m.Called(ctx, recipientID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResult), args.Error(1)
}

func (m *MockMessenger) SendMessageWithAttachments(ctx context.Context, recipientID, text string, attachments []model.Attachment) (*model.MessageResult, error) {
	args := m.Called(ctx, recipientID, text, attachments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResult), args.Error(1)
}

func (m *MockMessenger) FetchHistory(ctx context.Context, participantID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, participantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessenger) SendTypingIndicator(ctx context.Context, recipientID string, on bool) error {
	return m.Called(ctx, recipientID, on).Error(0)
}

func (m *MockMessenger) MarkAsRead(ctx context.Context, recipientID string) error {
	return m.Called(ctx, recipientID).Error(0)
}

type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) Resolve(ctx context.Context, platform model.Platform, identity model.Identity) (repository.IIntegration, error) {
	args := m.Called(ctx, platform, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.IIntegration), args.Error(1)
}

func (m *MockFactory) Invalidate(platform model.Platform, identity model.Identity) {
	m.Called(platform, identity)
}

func (m *MockFactory) Clear() { m.Called() }

func (m *MockFactory) Platforms() []model.Platform {
	return m.Called().Get(0).([]model.Platform)
}

func (m *MockFactory) Capabilities(ctx context.Context) []usecase.PlatformInfo {
	return m.Called(ctx).Get(0).([]usecase.PlatformInfo)
}

// recordingSink collects outcome events; err is returned from every Record.
type recordingSink struct {
	mu     sync.Mutex
	events []*repository.PublishOutcomeEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, evt *repository.PublishOutcomeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.err
}

func (s *recordingSink) Events() []*repository.PublishOutcomeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*repository.PublishOutcomeEvent(nil), s.events...)
}
