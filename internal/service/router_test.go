package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type routerFixture struct {
	contacts *mockContactRepo
	convs    *mockConversationRepo
	messages *mockMessageRepo
	sessions *mockSessionRepo
	router   *ConversationRouter
}

func newRouterFixture() *routerFixture {
	contacts := new(mockContactRepo)
	convs := new(mockConversationRepo)
	messages := new(mockMessageRepo)
	sessions := new(mockSessionRepo)
	return &routerFixture{
		contacts: contacts,
		convs:    convs,
		messages: messages,
		sessions: sessions,
		router:   NewConversationRouter(stubTx{}, contacts, convs, messages, sessions),
	}
}

func TestResolveContact(t *testing.T) {
	t.Run("returns the existing contact behind a known number", func(t *testing.T) {
		f := newRouterFixture()
		f.contacts.On("FindIdentityByPhone", mock.Anything, "tenant-1", "+919876543210").
			Return(&model.ContactIdentity{ID: "ident-1", ContactID: "contact-1"}, nil)
		f.contacts.On("FindContactByID", mock.Anything, "contact-1").
			Return(&model.Contact{ID: "contact-1", TenantID: "tenant-1"}, nil)

		contact, err := f.router.ResolveContact(context.Background(), "tenant-1", "+919876543210")
		require.NoError(t, err)
		assert.Equal(t, "contact-1", contact.ID)
		f.contacts.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
	})

	t.Run("creates contact and identity on first inbound contact", func(t *testing.T) {
		f := newRouterFixture()
		f.contacts.On("FindIdentityByPhone", mock.Anything, "tenant-1", "+919876543210").Return(nil, nil)
		f.contacts.On("CreateContact", mock.Anything, mock.MatchedBy(func(p model.CreateContactParams) bool {
			// The placeholder name must not expose the full number.
			return p.TenantID == "tenant-1" && p.Name != nil && *p.Name == "****3210"
		})).Return(&model.Contact{ID: "contact-1", TenantID: "tenant-1"}, nil)
		f.contacts.On("CreateIdentity", mock.Anything, "tenant-1", "contact-1", "+919876543210").
			Return(&model.ContactIdentity{ID: "ident-1", ContactID: "contact-1"}, nil)

		contact, err := f.router.ResolveContact(context.Background(), "tenant-1", "+919876543210")
		require.NoError(t, err)
		assert.Equal(t, "contact-1", contact.ID)
	})

	t.Run("loser of the first-contact race reads the winner's contact", func(t *testing.T) {
		f := newRouterFixture()
		// First lookup misses, the insert collides, the re-read hits.
		f.contacts.On("FindIdentityByPhone", mock.Anything, "tenant-1", "+919876543210").
			Return(nil, nil).Once()
		f.contacts.On("CreateContact", mock.Anything, mock.Anything).
			Return(&model.Contact{ID: "contact-loser", TenantID: "tenant-1"}, nil)
		f.contacts.On("CreateIdentity", mock.Anything, "tenant-1", "contact-loser", "+919876543210").
			Return(nil, &pq.Error{Code: "23505"})
		f.contacts.On("FindIdentityByPhone", mock.Anything, "tenant-1", "+919876543210").
			Return(&model.ContactIdentity{ID: "ident-1", ContactID: "contact-winner"}, nil).Once()
		f.contacts.On("FindContactByID", mock.Anything, "contact-winner").
			Return(&model.Contact{ID: "contact-winner", TenantID: "tenant-1"}, nil)

		contact, err := f.router.ResolveContact(context.Background(), "tenant-1", "+919876543210")
		require.NoError(t, err)
		assert.Equal(t, "contact-winner", contact.ID)
	})

	t.Run("non-constraint insert failure surfaces as database error", func(t *testing.T) {
		f := newRouterFixture()
		f.contacts.On("FindIdentityByPhone", mock.Anything, "tenant-1", "+919876543210").Return(nil, nil)
		f.contacts.On("CreateContact", mock.Anything, mock.Anything).
			Return(nil, errors.New("connection reset"))

		_, err := f.router.ResolveContact(context.Background(), "tenant-1", "+919876543210")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	})
}

func TestResolveConversation(t *testing.T) {
	f := newRouterFixture()
	sessionID := "sess-1"
	f.convs.On("Upsert", mock.Anything, model.CreateConversationParams{
		AccountID: "acc-1",
		ContactID: "contact-1",
		SessionID: &sessionID,
	}).Return(&model.Conversation{ID: "conv-1", AccountID: "acc-1", ContactID: "contact-1"}, nil)

	conv, err := f.router.ResolveConversation(context.Background(), "acc-1", "contact-1", &sessionID)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.ID)
}

func TestRecordInbound(t *testing.T) {
	receivedAt := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	body := "hello"

	params := func() RecordInboundParams {
		return RecordInboundParams{
			Conversation:      &model.Conversation{ID: "conv-1", AccountID: "acc-1", ContactID: "contact-1"},
			Session:           &model.Session{ID: "sess-1", AccountID: "acc-1", PhoneNumber: strPtr("+911234567890")},
			MessageType:       model.MessageTypeText,
			ProviderMessageID: "prov-msg-1",
			FromNumber:        "+919876543210",
			Text:              &body,
			ReceivedAt:        receivedAt,
		}
	}

	t.Run("records message, bumps unread and receive counter atomically", func(t *testing.T) {
		f := newRouterFixture()
		f.messages.On("CreateDeduped", mock.Anything, mock.MatchedBy(func(p model.CreateMessageParams) bool {
			return p.ConversationID == "conv-1" &&
				p.Direction == model.DirectionInbound &&
				p.Status == model.MessageStatusReceived &&
				p.ProviderMessageID != nil && *p.ProviderMessageID == "prov-msg-1"
		})).Return(&model.Message{ID: "msg-1", ConversationID: "conv-1"}, nil)
		f.convs.On("RecordMessage", mock.Anything, "conv-1", model.DirectionInbound, receivedAt, 1).Return(nil)
		f.sessions.On("IncrementRecvCount", mock.Anything, "sess-1").Return(nil)

		msg, err := f.router.RecordInbound(context.Background(), params())
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "msg-1", msg.ID)
	})

	t.Run("replayed provider message id moves no counters", func(t *testing.T) {
		f := newRouterFixture()
		f.messages.On("CreateDeduped", mock.Anything, mock.Anything).Return(nil, nil)

		msg, err := f.router.RecordInbound(context.Background(), params())
		require.NoError(t, err)
		assert.Nil(t, msg)
		f.convs.AssertNotCalled(t, "RecordMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.sessions.AssertNotCalled(t, "IncrementRecvCount", mock.Anything, mock.Anything)
	})
}
