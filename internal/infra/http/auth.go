package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spark-health-backend/internal/domain"
)

// ErrInvalidToken возвращается при невалидном или просроченном токене.
var ErrInvalidToken = errors.New("invalid token")

type contextKey string

const identityKey contextKey = "identity"

// Identity содержит данные аутентифицированного пользователя.
type Identity struct {
	UserID int64
	Email  string
	Phone  string
	Role   domain.UserRole
}

type tokenClaims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer подписывает и проверяет JWT.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenIssuer создаёт выпускатель токенов.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessToken выпускает access-токен пользователя.
func (t *TokenIssuer) AccessToken(user domain.User) (string, error) {
	return t.sign(user, t.accessSecret, t.accessTTL)
}

// RefreshToken выпускает refresh-токен пользователя.
func (t *TokenIssuer) RefreshToken(user domain.User) (string, error) {
	return t.sign(user, t.refreshSecret, t.refreshTTL)
}

func (t *TokenIssuer) sign(user domain.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Phone:  user.Phone,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return signed, nil
}

// ParseAccess проверяет access-токен.
func (t *TokenIssuer) ParseAccess(raw string) (Identity, error) {
	return t.parse(raw, t.accessSecret)
}

// ParseRefresh проверяет refresh-токен.
func (t *TokenIssuer) ParseRefresh(raw string) (Identity, error) {
	return t.parse(raw, t.refreshSecret)
}

func (t *TokenIssuer) parse(raw string, secret []byte) (Identity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Phone:  claims.Phone,
		Role:   domain.UserRole(claims.Role),
	}, nil
}

// AuthMiddleware проверяет Bearer-токен и кладёт Identity в контекст.
func AuthMiddleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			identity, err := issuer.ParseAccess(raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext возвращает Identity из контекста запроса.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	// WebSocket-клиенты не могут задавать заголовки, разрешаем query-параметр.
	return r.URL.Query().Get("token")
}
