package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName — cookie с JWT клиента.
const CookieName = "auth_token"

// TokenTTL — срок жизни выданного токена.
const TokenTTL = 24 * time.Hour

type ctxKey struct{}

// Claims — стандартные утверждения плюс идентификатор клиента.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
}

// IssueToken подписывает JWT для клиента (HS256).
func IssueToken(clientID, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		ClientID: clientID,
	})
	return token.SignedString([]byte(secret))
}

// SetLoginCookie выпускает токен и кладёт его в cookie ответа.
func SetLoginCookie(w http.ResponseWriter, clientID, secret string) (string, error) {
	token, err := IssueToken(clientID, secret)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(TokenTTL),
	})
	return token, nil
}

func clientIDFromToken(tokenString, secret string) (string, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.ClientID == "" {
		return "", false
	}
	return claims.ClientID, true
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// WithAuth кладёт client id в контекст, если токен валиден. Анонимные запросы
// пропускаются дальше: закрытые маршруты проверяет RequireAuth.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := tokenFromRequest(r); tok != "" {
				if id, ok := clientIDFromToken(tok, secret); ok {
					r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth отвечает 401 на запросы без валидного токена.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetClientIDFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIDFromContext returns the authenticated client id.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
