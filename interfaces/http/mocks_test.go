package http_test

import (
	"context"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/usecase"

	"github.com/stretchr/testify/mock"
)

type MockPublishUsecase struct {
	mock.Mock
}

func (m *MockPublishUsecase) Publish(ctx context.Context, platform model.Platform, identity model.Identity, req *model.PublishRequest) *model.PublishResult {
	args := m.Called(ctx, platform, identity, req)
	return args.Get(0).(*model.PublishResult)
}

func (m *MockPublishUsecase) PublishToMany(ctx context.Context, platforms []model.Platform, identity model.Identity, req *model.PublishRequest) []model.PlatformOutcome {
	args := m.Called(ctx, platforms, identity, req)
	return args.Get(0).([]model.PlatformOutcome)
}

func (m *MockPublishUsecase) Update(ctx context.Context, platform model.Platform, identity model.Identity, postID string, req *model.PublishRequest) *model.PublishResult {
	args := m.Called(ctx, platform, identity, postID, req)
	return args.Get(0).(*model.PublishResult)
}

func (m *MockPublishUsecase) Delete(ctx context.Context, platform model.Platform, identity model.Identity, postID string) (bool, error) {
	args := m.Called(ctx, platform, identity, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPublishUsecase) GetMetrics(ctx context.Context, platform model.Platform, identity model.Identity, postID string) (*model.Metrics, error) {
	args := m.Called(ctx, platform, identity, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Metrics), args.Error(1)
}

func (m *MockPublishUsecase) VerifyAuth(ctx context.Context, platform model.Platform, identity model.Identity) (bool, error) {
	args := m.Called(ctx, platform, identity)
	return args.Bool(0), args.Error(1)
}

func (m *MockPublishUsecase) GetJob(ctx context.Context, jobID string) (*model.PublishJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishJob), args.Error(1)
}

func (m *MockPublishUsecase) Platforms(ctx context.Context) []usecase.PlatformInfo {
	args := m.Called(ctx)
	return args.Get(0).([]usecase.PlatformInfo)
}

type MockMessageUsecase struct {
	mock.Mock
}

func (m *MockMessageUsecase) SendMessage(ctx context.Context, platform model.Platform, identity model.Identity, recipientID, text string) (*model.MessageResult, error) {
	args := m.Called(ctx, platform, identity, recipientID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResult), args.Error(1)
}

func (m *MockMessageUsecase) SendMessageWithAttachments(ctx context.Context, platform model.Platform, identity model.Identity, recipientID, text string, attachments []model.Attachment) (*model.MessageResult, error) {
	args := m.Called(ctx, platform, identity, recipientID, text, attachments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResult), args.Error(1)
}

func (m *MockMessageUsecase) FetchHistory(ctx context.Context, platform model.Platform, identity model.Identity, participantID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, platform, identity, participantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageUsecase) SendTypingIndicator(ctx context.Context, platform model.Platform, identity model.Identity, recipientID string, on bool) error {
	return m.Called(ctx, platform, identity, recipientID, on).Error(0)
}

func (m *MockMessageUsecase) MarkAsRead(ctx context.Context, platform model.Platform, identity model.Identity, recipientID string) error {
	return m.Called(ctx, platform, identity, recipientID).Error(0)
}

type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) GetCredential(ctx context.Context, identity model.Identity, platform model.Platform) (*model.PlatformCredential, error) {
	args := m.Called(ctx, identity, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformCredential), args.Error(1)
}

func (m *MockTokenManager) Connect(ctx context.Context, cred *model.PlatformCredential) error {
	return m.Called(ctx, cred).Error(0)
}

func (m *MockTokenManager) Disconnect(ctx context.Context, identity model.Identity, platform model.Platform) error {
	return m.Called(ctx, identity, platform).Error(0)
}

func (m *MockTokenManager) ListConnections(ctx context.Context, identity model.Identity) ([]*model.PlatformCredential, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PlatformCredential), args.Error(1)
}

func (m *MockTokenManager) Token(identity model.Identity, platform model.Platform) remote.TokenSource {
	return m.Called(identity, platform).Get(0).(remote.TokenSource)
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

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, evt *repository.PublishOutcomeEvent) error {
	return m.Called(ctx, evt).Error(0)
}

func (m *MockAudit) ListByIdentity(ctx context.Context, identity model.Identity, limit int64) ([]*repository.PublishOutcomeEvent, error) {
	args := m.Called(ctx, identity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.PublishOutcomeEvent), args.Error(1)
}

type MockFacebookAuth struct {
	mock.Mock
}

func (m *MockFacebookAuth) AuthURL(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

func (m *MockFacebookAuth) Exchange(ctx context.Context, code, pageID string) (*model.PlatformCredential, error) {
	args := m.Called(ctx, code, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformCredential), args.Error(1)
}

type MockYouTubeAuth struct {
	mock.Mock
}

func (m *MockYouTubeAuth) AuthURL(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

func (m *MockYouTubeAuth) Exchange(ctx context.Context, code string) (*model.PlatformCredential, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlatformCredential), args.Error(1)
}
