// auth.go — JWT middleware для аутентификации вызывающих сервисов.
// Включается, если задан IG_JWT_JWKS_URL; защищает только /api/*.
// Подпись проверяется по JWKS (RS256), опционально проверяются issuer и scope.
// Scope читается из claim "scp" (массив, формат Okta) или "scope" (строка через пробел).
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/identity-gateway/internal/api/errors"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyClaims — извлечённые claims в контексте запроса.
	ContextKeyClaims contextKey = "jwt_claims"
)

// AuthClaims — claims вызывающего, помещаются в контекст запроса.
type AuthClaims struct {
	// Subject — sub из JWT
	Subject string
	// ClientID — cid (Okta) или client_id
	ClientID string
	// Scopes — объединение scp и scope
	Scopes []string
}

// HasScope проверяет наличие указанного scope.
func (c *AuthClaims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// tokenClaims — raw claims access token.
type tokenClaims struct {
	jwt.RegisteredClaims
	// Scp — scopes массивом (Okta access token)
	Scp []string `json:"scp,omitempty"`
	// Scope — scopes через пробел (OAuth2 / Keycloak)
	Scope string `json:"scope,omitempty"`
	// Cid — client ID (Okta)
	Cid string `json:"cid,omitempty"`
	// ClientID — client ID (Keycloak)
	ClientID string `json:"client_id,omitempty"`
}

// JWTAuth — middleware для JWT-аутентификации через JWKS.
type JWTAuth struct {
	jwks          keyfunc.Keyfunc
	logger        *slog.Logger
	issuer        string
	requiredScope string
	jwtLeeway     time.Duration
}

// NewJWTAuth создаёт JWT middleware с JWKS по URL.
// Пустые issuer и requiredScope отключают соответствующую проверку.
func NewJWTAuth(
	jwksURL string,
	issuer string,
	requiredScope string,
	jwksClientTimeout time.Duration,
	jwksRefreshInterval time.Duration,
	jwtLeeway time.Duration,
	logger *slog.Logger,
) (*JWTAuth, error) {
	// JWKS Storage с фоновым обновлением.
	// NoErrorReturnFirstHTTPReq — стартуем даже если IdP ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: jwksClientTimeout},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           jwksRefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewJWTAuthWithKeyfunc(k, issuer, requiredScope, jwtLeeway, logger), nil
}

// NewJWTAuthWithKeyfunc создаёт JWT middleware с готовым keyfunc.
// Используется в тестах со статическим JWKS.
func NewJWTAuthWithKeyfunc(
	k keyfunc.Keyfunc,
	issuer string,
	requiredScope string,
	jwtLeeway time.Duration,
	logger *slog.Logger,
) *JWTAuth {
	return &JWTAuth{
		jwks:          k,
		logger:        logger.With(slog.String("component", "jwt_auth")),
		issuer:        issuer,
		requiredScope: requiredScope,
		jwtLeeway:     jwtLeeway,
	}
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает Bearer token, валидирует подпись (RS256), проверяет scope
// и помещает claims в контекст.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Missing Authorization header")
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				apierrors.Unauthorized(w, "Invalid Authorization header: expected Bearer <token>")
				return
			}

			rawClaims := &tokenClaims{}
			parserOpts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"RS256"}),
				jwt.WithExpirationRequired(),
				jwt.WithLeeway(j.jwtLeeway),
			}
			if j.issuer != "" {
				parserOpts = append(parserOpts, jwt.WithIssuer(j.issuer))
			}

			token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), rawClaims, j.jwks.KeyfuncCtx(r.Context()), parserOpts...)
			if err != nil || !token.Valid {
				j.logger.Debug("JWT валидация не пройдена",
					slog.Any("error", err),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Invalid or expired token")
				return
			}

			claims := buildAuthClaims(rawClaims)

			if j.requiredScope != "" && !claims.HasScope(j.requiredScope) {
				apierrors.Forbidden(w, fmt.Sprintf("Insufficient scope: %s required", j.requiredScope))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// buildAuthClaims формирует AuthClaims из raw claims.
func buildAuthClaims(raw *tokenClaims) *AuthClaims {
	claims := &AuthClaims{
		Subject:  raw.Subject,
		ClientID: raw.Cid,
	}
	if claims.ClientID == "" {
		claims.ClientID = raw.ClientID
	}

	claims.Scopes = append(claims.Scopes, raw.Scp...)
	for _, s := range strings.Fields(raw.Scope) {
		if !slices.Contains(claims.Scopes, s) {
			claims.Scopes = append(claims.Scopes, s)
		}
	}
	return claims
}

// --- Context helpers ---

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}
