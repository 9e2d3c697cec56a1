package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTResolver(t *testing.T) {
	resolver := NewJWTResolver(testSecret)

	t.Run("resolves valid token", func(t *testing.T) {
		token := signToken(t, testSecret, &platformClaims{
			TenantID:        "tenant-1",
			LicensedModules: []string{"whatsapp", "crm"},
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		id, err := resolver.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", id.UserID)
		assert.Equal(t, "tenant-1", id.TenantID)
		assert.True(t, id.HasModule("whatsapp"))
		assert.False(t, id.HasModule("billing"))
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token := signToken(t, testSecret, &platformClaims{
			TenantID: "tenant-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})

		_, err := resolver.Resolve(context.Background(), token)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
	})

	t.Run("rejects token signed with wrong secret", func(t *testing.T) {
		token := signToken(t, "another-secret-another-secret-00", &platformClaims{
			TenantID: "tenant-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		_, err := resolver.Resolve(context.Background(), token)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})

	t.Run("rejects unsigned token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &platformClaims{
			TenantID: "tenant-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user-1",
			},
		})
		unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, resolveErr := resolver.Resolve(context.Background(), unsigned)
		assert.Error(t, resolveErr)
	})

	t.Run("rejects token missing subject", func(t *testing.T) {
		token := signToken(t, testSecret, &platformClaims{
			TenantID: "tenant-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		_, err := resolver.Resolve(context.Background(), token)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})

	t.Run("rejects token missing tenant", func(t *testing.T) {
		token := signToken(t, testSecret, &platformClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		_, err := resolver.Resolve(context.Background(), token)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "not-a-token")
		assert.Error(t, err)
	})
}
