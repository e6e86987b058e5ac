package httpadapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/shop-verification/internal/config"
)

const testSecret = "test-secret"

func authedRequest(t *testing.T, method, target, role string) *http.Request {
	t.Helper()
	token, err := SignToken(testSecret, "alice", role, time.Minute)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthRequiresToken(t *testing.T) {
	h := newTestHandler(config.Config{AuthJWTSecret: testSecret})

	res := doJSON(t, h, http.MethodGet, "/v1/shops/7", "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}

	res = doJSON(t, h, http.MethodGet, "/healthz", "")
	if res.Code != http.StatusOK {
		t.Fatalf("healthz must stay public, got %d", res.Code)
	}
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	token, err := SignToken("other-secret", "mallory", RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/shops/7", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	newTestHandler(config.Config{AuthJWTSecret: testSecret}).ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	claims := tokenClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := newAuthenticator(testSecret).parse(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestAuthRejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "mallory"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := newAuthenticator(testSecret).parse(token); err == nil {
		t.Fatalf("expected unsigned token to be rejected")
	}
}

func TestViewerCannotMutate(t *testing.T) {
	res := httptest.NewRecorder()
	newTestHandler(config.Config{AuthJWTSecret: testSecret}).
		ServeHTTP(res, authedRequest(t, http.MethodPut, "/v1/shops/7/approve", RoleViewer))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	newTestHandler(config.Config{AuthJWTSecret: testSecret}).
		ServeHTTP(res, authedRequest(t, http.MethodGet, "/v1/shops/7", RoleViewer))
	if res.Code != http.StatusOK {
		t.Fatalf("viewer read expected 200, got %d", res.Code)
	}
}

func TestReviewerSubjectBecomesActor(t *testing.T) {
	svc := newTestServices()
	res := httptest.NewRecorder()
	svc.handler(config.Config{AuthJWTSecret: testSecret}).
		ServeHTTP(res, authedRequest(t, http.MethodPut, "/v1/shops/7/approve", RoleReviewer))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if svc.shops.lastActor != "alice" {
		t.Fatalf("expected actor alice, got %q", svc.shops.lastActor)
	}
}

func TestEventsAcceptQueryToken(t *testing.T) {
	token, err := SignToken(testSecret, "dash", RoleViewer, time.Minute)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := newTestServices().handler(config.Config{AuthJWTSecret: testSecret}, WithEvents(events))

	res := doJSON(t, h, http.MethodGet, eventsPath+"?access_token="+token, "")
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	res = doJSON(t, h, http.MethodGet, "/v1/shops/7?access_token="+token, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("query token outside the event stream expected 401, got %d", res.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
		"Bearer":       "",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
