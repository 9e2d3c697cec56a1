package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
)

type stubResolver struct {
	ident *identity.Identity
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, token string) (*identity.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ident, nil
}

func TestAuthMiddleware(t *testing.T) {
	licensed := &identity.Identity{
		UserID:          "user-1",
		TenantID:        "tenant-1",
		LicensedModules: []string{"whatsapp"},
	}

	echoIdentity := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := GetIdentity(r.Context())
		require.NotNil(t, ident)
		w.Write([]byte(ident.TenantID))
	})

	t.Run("puts the resolved identity on the context", func(t *testing.T) {
		m := NewAuthMiddleware(&stubResolver{ident: licensed})
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer token-abc")
		rec := httptest.NewRecorder()

		m.Handler(echoIdentity).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tenant-1", rec.Body.String())
	})

	t.Run("accepts the token query parameter for SSE clients", func(t *testing.T) {
		m := NewAuthMiddleware(&stubResolver{ident: licensed})
		req := httptest.NewRequest(http.MethodGet, "/v1/events?token=token-abc", nil)
		rec := httptest.NewRecorder()

		m.Handler(echoIdentity).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		m := NewAuthMiddleware(&stubResolver{ident: licensed})
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()

		m.Handler(echoIdentity).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token the resolver refuses", func(t *testing.T) {
		m := NewAuthMiddleware(&stubResolver{err: apperrors.InvalidToken("bad signature")})
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer token-abc")
		rec := httptest.NewRecorder()

		m.Handler(echoIdentity).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireModule(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	withIdentity := func(req *http.Request, ident *identity.Identity) *http.Request {
		return req.WithContext(context.WithValue(req.Context(), IdentityContextKey, ident))
	}

	t.Run("passes a licensed tenant through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req = withIdentity(req, &identity.Identity{TenantID: "tenant-1", LicensedModules: []string{"crm", "whatsapp"}})
		rec := httptest.NewRecorder()

		RequireModule(WhatsAppModule)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("rejects an unlicensed tenant with the module code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req = withIdentity(req, &identity.Identity{TenantID: "tenant-1", LicensedModules: []string{"crm"}})
		rec := httptest.NewRecorder()

		RequireModule(WhatsAppModule)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "MODULE_NOT_LICENSED")
	})

	t.Run("rejects a request with no identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		rec := httptest.NewRecorder()

		RequireModule(WhatsAppModule)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
