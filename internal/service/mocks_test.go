package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/PayAidPayments/payaid-whatsapp/internal/database"
	"github.com/PayAidPayments/payaid-whatsapp/internal/events"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
	"github.com/PayAidPayments/payaid-whatsapp/internal/provider"
	"github.com/PayAidPayments/payaid-whatsapp/internal/repository"
)

// stubTx runs the transaction body directly. Repository mocks return
// themselves from WithTx, so the nil tx handle is never dereferenced.
type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

// fakePublisher records published events for assertions.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	TenantID string
	Event    events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, tenantID string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{TenantID: tenantID, Event: event})
	return nil
}

func (p *fakePublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

// fakeAuditRepo collects audit entries without expectations so services can
// record freely; tests inspect the captured entries when they care.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.CreateAuditEntryParams
}

func (f *fakeAuditRepo) Create(ctx context.Context, params model.CreateAuditEntryParams) (*model.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, params)
	return &model.AuditLogEntry{AccountID: params.AccountID, Action: params.Action, Status: params.Status}, nil
}

func (f *fakeAuditRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.AuditLogEntry, error) {
	return nil, nil
}

func (f *fakeAuditRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	return 0, nil
}

func (f *fakeAuditRepo) recorded() []model.CreateAuditEntryParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CreateAuditEntryParams(nil), f.entries...)
}

// Mock account repository
type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByTenant(ctx context.Context, tenantID string, limit, offset int) ([]model.Account, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Account), args.Error(1)
}

func (m *mockAccountRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) Update(ctx context.Context, id string, params model.UpdateAccountParams) (*model.Account, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) UpdateStatus(ctx context.Context, id string, status model.AccountStatus, errorMessage *string) (*model.Account, error) {
	args := m.Called(ctx, id, status, errorMessage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return m
}

// Mock session repository
type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindByProviderSessionID(ctx context.Context, providerSessionID string) (*model.Session, error) {
	args := m.Called(ctx, providerSessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindByAccountID(ctx context.Context, accountID string) ([]model.Session, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindFirstConnectedByAccountID(ctx context.Context, accountID string) (*model.Session, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) CountByAccountIDAndStatus(ctx context.Context, accountID string, status model.SessionStatus) (int, error) {
	args := m.Called(ctx, accountID, status)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) MarkConnected(ctx context.Context, id string, phoneNumber *string) (*model.Session, error) {
	args := m.Called(ctx, id, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) MarkDisconnected(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) IncrementSentCount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) IncrementRecvCount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

// Mock contact repository
type mockContactRepo struct {
	mock.Mock
}

func (m *mockContactRepo) FindContactByID(ctx context.Context, id string) (*model.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockContactRepo) FindIdentityByPhone(ctx context.Context, tenantID, phoneNumber string) (*model.ContactIdentity, error) {
	args := m.Called(ctx, tenantID, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContactIdentity), args.Error(1)
}

func (m *mockContactRepo) FindIdentityByContactID(ctx context.Context, contactID string) (*model.ContactIdentity, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContactIdentity), args.Error(1)
}

func (m *mockContactRepo) CreateContact(ctx context.Context, params model.CreateContactParams) (*model.Contact, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *mockContactRepo) CreateIdentity(ctx context.Context, tenantID, contactID, phoneNumber string) (*model.ContactIdentity, error) {
	args := m.Called(ctx, tenantID, contactID, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContactIdentity), args.Error(1)
}

func (m *mockContactRepo) WithTx(tx *sqlx.Tx) repository.ContactRepository {
	return m
}

// Mock conversation repository
type mockConversationRepo struct {
	mock.Mock
}

func (m *mockConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) FindByAccountAndContact(ctx context.Context, accountID, contactID string) (*model.Conversation, error) {
	args := m.Called(ctx, accountID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) FindByAccountID(ctx context.Context, accountID string, status *model.ConversationStatus, limit, offset int) ([]model.Conversation, error) {
	args := m.Called(ctx, accountID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *mockConversationRepo) Upsert(ctx context.Context, params model.CreateConversationParams) (*model.Conversation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) RecordMessage(ctx context.Context, id string, direction model.MessageDirection, at time.Time, unreadDelta int) error {
	args := m.Called(ctx, id, direction, at, unreadDelta)
	return args.Error(0)
}

func (m *mockConversationRepo) MarkRead(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) Update(ctx context.Context, id string, params model.UpdateConversationParams) (*model.Conversation, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) WithTx(tx *sqlx.Tx) repository.ConversationRepository {
	return m
}

// Mock message repository
type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id string) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindByProviderMessageID(ctx context.Context, providerMessageID string) (*model.Message, error) {
	args := m.Called(ctx, providerMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageRepo) CountByConversationID(ctx context.Context, conversationID string) (int, error) {
	args := m.Called(ctx, conversationID)
	return args.Int(0), args.Error(1)
}

func (m *mockMessageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) CreateDeduped(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) MarkDelivered(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessageRepo) MarkFailed(ctx context.Context, id string, errorCode, errorMessage *string) (bool, error) {
	args := m.Called(ctx, id, errorCode, errorMessage)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessageRepo) CountByAccountSince(ctx context.Context, accountID string, direction model.MessageDirection, since time.Time) (int, error) {
	args := m.Called(ctx, accountID, direction, since)
	return args.Int(0), args.Error(1)
}

func (m *mockMessageRepo) CountByAccountAndStatusSince(ctx context.Context, accountID string, status model.MessageStatus, since time.Time) (int, error) {
	args := m.Called(ctx, accountID, status, since)
	return args.Int(0), args.Error(1)
}

func (m *mockMessageRepo) WithTx(tx *sqlx.Tx) repository.MessageRepository {
	return m
}

// Mock template repository
type mockTemplateRepo struct {
	mock.Mock
}

func (m *mockTemplateRepo) FindByID(ctx context.Context, id string) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *mockTemplateRepo) FindByTenant(ctx context.Context, tenantID string, limit, offset int) ([]model.Template, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}

func (m *mockTemplateRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *mockTemplateRepo) Create(ctx context.Context, params model.CreateTemplateParams) (*model.Template, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *mockTemplateRepo) Update(ctx context.Context, id string, params model.UpdateTemplateParams) (*model.Template, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock provider client
type mockProviderClient struct {
	mock.Mock
}

func (m *mockProviderClient) CreateInstance(ctx context.Context, name string) (*provider.Instance, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Instance), args.Error(1)
}

func (m *mockProviderClient) GetInstance(ctx context.Context, instanceID string) (*provider.Instance, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Instance), args.Error(1)
}

func (m *mockProviderClient) GetQRCode(ctx context.Context, instanceID string) (*provider.QRCode, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.QRCode), args.Error(1)
}

func (m *mockProviderClient) SendMessage(ctx context.Context, instanceID string, req provider.SendMessageRequest) (*provider.SendMessageResponse, error) {
	args := m.Called(ctx, instanceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SendMessageResponse), args.Error(1)
}

func (m *mockProviderClient) DeleteInstance(ctx context.Context, instanceID string) error {
	args := m.Called(ctx, instanceID)
	return args.Error(0)
}

// clientsFor builds a ProviderClients that always hands out the given mock.
func clientsFor(client provider.Client) *ProviderClients {
	return NewProviderClients(func(baseURL, apiKey string) provider.Client {
		return client
	}, "http://waha.internal:3000", "platform-key")
}

func strPtr(s string) *string {
	return &s
}
