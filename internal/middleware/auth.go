package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
	"github.com/PayAidPayments/payaid-whatsapp/internal/httputil"
	"github.com/PayAidPayments/payaid-whatsapp/internal/identity"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// WhatsAppModule is the license the tenant must hold for every endpoint in
// this service.
const WhatsAppModule = "whatsapp"

func GetIdentity(ctx context.Context) *identity.Identity {
	if ident, ok := ctx.Value(IdentityContextKey).(*identity.Identity); ok {
		return ident
	}
	return nil
}

// AuthMiddleware resolves the caller's bearer token to an identity through
// the platform's resolver. Token issuance lives outside this service.
type AuthMiddleware struct {
	resolver identity.Resolver
}

func NewAuthMiddleware(resolver identity.Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		ident, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("auth middleware: token rejected")
			httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireModule rejects callers whose tenant does not hold the named module
// license. Runs after AuthMiddleware.
func RequireModule(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := GetIdentity(r.Context())
			if ident == nil {
				httputil.WriteError(w, apperrors.Unauthorized("Missing authentication"))
				return
			}
			if !ident.HasModule(name) {
				log.Warn().
					Str("tenantId", ident.TenantID).
					Str("module", name).
					Msg("module license check failed")
				httputil.WriteError(w, apperrors.ModuleNotLicensed(name))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// SSE clients cannot set headers from EventSource.
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}
