package audit

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/model"
)

type mockAuditLogRepo struct {
	mock.Mock
}

func (m *mockAuditLogRepo) Create(ctx context.Context, params model.CreateAuditEntryParams) (*model.AuditLogEntry, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditLogEntry), args.Error(1)
}

func (m *mockAuditLogRepo) FindByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditLogEntry), args.Error(1)
}

func (m *mockAuditLogRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func TestRecorderRecord(t *testing.T) {
	t.Run("persists entry", func(t *testing.T) {
		repo := new(mockAuditLogRepo)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateAuditEntryParams) bool {
			return p.AccountID == "acc-1" &&
				p.Action == "message_send" &&
				p.Status == model.AuditStatusSuccess
		})).Return(&model.AuditLogEntry{ID: "audit-1"}, nil)

		recorder := NewRecorder(repo)
		recorder.Record(context.Background(), Success("acc-1", ActionMessageSend, "sent text message"))

		repo.AssertExpectations(t)
	})

	t.Run("swallows repository failure", func(t *testing.T) {
		repo := new(mockAuditLogRepo)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		recorder := NewRecorder(repo)
		assert.NotPanics(t, func() {
			recorder.Record(context.Background(), Success("acc-1", ActionMessageSend, "sent text message"))
		})

		repo.AssertExpectations(t)
	})

	t.Run("records even when caller context is cancelled", func(t *testing.T) {
		repo := new(mockAuditLogRepo)
		repo.On("Create", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), mock.Anything).Return(&model.AuditLogEntry{ID: "audit-1"}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		recorder := NewRecorder(repo)
		recorder.Record(ctx, Success("acc-1", ActionSessionCreate, "created session"))

		repo.AssertExpectations(t)
	})
}

func TestFailureEntry(t *testing.T) {
	t.Run("captures app error code", func(t *testing.T) {
		entry := Failure("acc-1", ActionMessageSend, "send failed", apperrors.NoActiveSession())
		assert.Equal(t, model.AuditStatusFailure, entry.Status)
		assert.NotNil(t, entry.ErrorCode)
		assert.Equal(t, "NO_ACTIVE_SESSION", *entry.ErrorCode)
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		entry := Failure("acc-1", ActionMessageSend, "send failed", assert.AnError)
		assert.NotNil(t, entry.ErrorCode)
		assert.Equal(t, "INTERNAL_ERROR", *entry.ErrorCode)
	})

	t.Run("nil error leaves code empty", func(t *testing.T) {
		entry := Failure("acc-1", ActionMessageSend, "send failed", nil)
		assert.Nil(t, entry.ErrorCode)
	})
}

func TestRecordFromRequest(t *testing.T) {
	t.Run("fills ip and user agent", func(t *testing.T) {
		repo := new(mockAuditLogRepo)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateAuditEntryParams) bool {
			return p.IPAddress != nil && *p.IPAddress == "203.0.113.9" &&
				p.UserAgent != nil && *p.UserAgent == "test-agent"
		})).Return(&model.AuditLogEntry{ID: "audit-1"}, nil)

		req := httptest.NewRequest("POST", "/api/whatsapp/accounts", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		req.Header.Set("User-Agent", "test-agent")

		recorder := NewRecorder(repo)
		recorder.RecordFromRequest(req, Success("acc-1", ActionAccountCreate, "created account"))

		repo.AssertExpectations(t)
	})
}
