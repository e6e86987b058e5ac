package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
	RoleViewer   = "viewer"

	systemActor = "system"
)

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type principal struct {
	Subject string
	Role    string
}

// canMutate reports whether the caller may change shops or documents.
func (p principal) canMutate() bool {
	return p.Role == RoleAdmin || p.Role == RoleReviewer
}

type principalContextKey struct{}

func actorFromContext(ctx context.Context) string {
	p, ok := ctx.Value(principalContextKey{}).(principal)
	if !ok || p.Subject == "" {
		return systemActor
	}
	return p.Subject
}

// SignToken issues an HS256 token for subject with the given role.
func SignToken(secret, subject, role string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("signing secret is empty")
	}
	now := time.Now()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type authenticator struct {
	secret []byte
}

func newAuthenticator(secret string) *authenticator {
	return &authenticator{secret: []byte(strings.TrimSpace(secret))}
}

// middleware guards /v1/. Reads need any valid token, mutations need a reviewer
// or admin role. With no secret configured every caller acts as the system admin.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/") {
			next.ServeHTTP(w, r)
			return
		}

		p := principal{Subject: systemActor, Role: RoleAdmin}
		if len(a.secret) > 0 {
			token := bearerToken(r.Header.Get("Authorization"))
			// Browsers cannot set headers on a websocket handshake.
			if token == "" && r.URL.Path == eventsPath {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				writeError(w, r, domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("bearer token is required")))
				return
			}
			parsed, err := a.parse(token)
			if err != nil {
				writeError(w, r, domain.WrapError(domain.ErrUnauthorized, "authenticate", err))
				return
			}
			p = parsed
		}
		noteAccessPrincipal(r.Context(), p)

		if r.Method != http.MethodGet && r.Method != http.MethodHead && !p.canMutate() {
			writeError(w, r, domain.WrapError(domain.ErrForbidden, "authorize",
				fmt.Errorf("role %q may not modify resources", p.Role)))
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *authenticator) parse(raw string) (principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return principal{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return principal{}, errors.New("token subject is empty")
	}
	return principal{Subject: claims.Subject, Role: claims.Role}, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
