package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "loan-origination/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const adminRole = "admin"

var ErrInvalidToken = errors.New("INVALID_TOKEN")

// AdminClaims are carried by tokens allowed to reset sessions.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth signs and verifies HS256 admin tokens.
type AdminAuth struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewAdminAuth(secret, issuer string) *AdminAuth {
	return &AdminAuth{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue mints an admin token for subject.
func (a *AdminAuth) Issue(subject string, ttl time.Duration) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(a.secret)
}

// Verify parses a token and checks signature, expiry, issuer and role.
func (a *AdminAuth) Verify(raw string) (*AdminClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != adminRole {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Require rejects requests without a valid admin bearer token.
// An AdminAuth without a secret rejects everything.
func (a *AdminAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil || len(a.secret) == 0 {
			writeError(w, apperrors.NewUnauthorizedError("admin access is not configured"))
			return
		}
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, apperrors.NewUnauthorizedError("bearer token required"))
			return
		}
		if _, err := a.Verify(strings.TrimSpace(raw)); err != nil {
			writeError(w, apperrors.NewUnauthorizedError("invalid admin token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
