package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/document-requests-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// Claims - содержимое токена, выданного провайдером входа
type Claims struct {
	Role              string `json:"role"`
	Department        string `json:"department"`
	ManagedDepartment string `json:"managed_department,omitempty"`
	jwt.RegisteredClaims
}

var errInvalidSubject = errors.New("token subject must be a numeric user id")

// WithPrincipal кладёт принципала в контекст
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext возвращает принципала, установленного Authenticate
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate проверяет Bearer JWT (HS256) и кладёт принципала в контекст.
// Пути из public пропускаются без проверки.
func Authenticate(secret []byte, logger *slog.Logger, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range public {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			principal, err := ParseToken(raw, secret)
			if err != nil {
				logger.Warn("rejected token", slog.String("path", r.URL.Path), slog.Any("error", err))
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// ParseToken проверяет подпись и срок токена и строит принципала
func ParseToken(raw string, secret []byte) (domain.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Principal{}, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Principal{}, errInvalidSubject
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return domain.Principal{}, errors.New("unknown role " + claims.Role)
	}

	return domain.Principal{
		ID:                id,
		Role:              role,
		Department:        claims.Department,
		ManagedDepartment: claims.ManagedDepartment,
	}, nil
}
