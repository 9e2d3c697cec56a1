package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	apperrors "github.com/PayAidPayments/payaid-whatsapp/internal/errors"
)

// platformClaims mirrors the token payload issued by the platform's auth
// service.
type platformClaims struct {
	TenantID        string   `json:"tenantId"`
	LicensedModules []string `json:"licensedModules"`
	jwt.RegisteredClaims
}

type jwtResolver struct {
	secret []byte
}

// NewJWTResolver verifies HS256 tokens signed with the shared platform
// secret.
func NewJWTResolver(secret string) Resolver {
	return &jwtResolver{secret: []byte(secret)}
}

func (r *jwtResolver) Resolve(_ context.Context, token string) (*Identity, error) {
	claims := &platformClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken("Token verification failed").WithCause(err)
	}
	if !parsed.Valid {
		return nil, apperrors.InvalidToken("Token verification failed")
	}

	if claims.Subject == "" {
		return nil, apperrors.InvalidToken("Token missing subject")
	}
	if claims.TenantID == "" {
		return nil, apperrors.InvalidToken("Token missing tenant")
	}

	return &Identity{
		UserID:          claims.Subject,
		TenantID:        claims.TenantID,
		LicensedModules: claims.LicensedModules,
	}, nil
}
