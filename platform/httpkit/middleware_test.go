package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{ secret string }

func (c testJWTConfig) GetJWTAccessSecret() string { return c.secret }

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func newAuthRouter(secret string) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	seen := new(uuid.UUID)
	r := gin.New()
	r.GET("/me", AuthRequired(testJWTConfig{secret: secret}), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		*seen = id.UserID()
		c.Status(http.StatusNoContent)
	})
	return r, seen
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	router, seen := newAuthRouter("secret")
	userID := uuid.New()
	token := signTestToken(t, "secret", jwt.MapClaims{
		"sub":  userID.String(),
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if *seen != userID {
		t.Fatalf("expected identity %s, got %s", userID, *seen)
	}
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	router, _ := newAuthRouter("secret")
	userID := uuid.New().String()
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"missing header": "",
		"wrong secret":   "Bearer " + signTestToken(t, "other", jwt.MapClaims{"sub": userID, "type": "access", "exp": exp}),
		"wrong type":     "Bearer " + signTestToken(t, "secret", jwt.MapClaims{"sub": userID, "type": "refresh", "exp": exp}),
		"bad subject":    "Bearer " + signTestToken(t, "secret", jwt.MapClaims{"sub": "nope", "type": "access", "exp": exp}),
		"expired":        "Bearer " + signTestToken(t, "secret", jwt.MapClaims{"sub": userID, "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestWindowRateLimiterBlocksAfterAllowance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewWindowRateLimiter(2, time.Hour, nil)
	r := gin.New()
	r.GET("/", limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestIdentityRejectsMissingOrNilUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, value := range map[string]any{"missing": nil, "nil uuid": uuid.Nil, "wrong type": "abc"} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			if value != nil {
				c.Set(ContextUserIDKey, value)
			}
			if MustGetIdentity(c) != nil {
				t.Fatal("expected no identity")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
