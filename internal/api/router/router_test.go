package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoynet/honeypot-platform/internal/detect"
	"github.com/decoynet/honeypot-platform/internal/honeypot"
	"github.com/decoynet/honeypot-platform/internal/intel"
	"github.com/decoynet/honeypot-platform/internal/llm"
	"github.com/decoynet/honeypot-platform/internal/session"
	"github.com/decoynet/honeypot-platform/pkg/logging"
)

type fixedLLM struct{}

func (fixedLLM) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	return llm.Response{Text: "Haan beta, tell me more?"}, nil
}

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	logger := logging.Default()
	store := session.NewStore(logger)

	svc, err := honeypot.NewService(honeypot.ServiceDeps{
		Store:     store,
		Detector:  detect.New(logger),
		Extractor: intel.NewExtractor(),
		LLM:       fixedLLM{},
		Logger:    logger,
	})
	require.NoError(t, err)

	return &Config{
		Logger:          logger,
		HoneypotHandler: honeypot.NewHandler(svc, store, logger),
	}
}

func TestRouterHealth(t *testing.T) {
	r := New(newTestConfig(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterWebhookAPIKey(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.APIKey = "secret-key"
	r := New(cfg)

	body := `{"sessionId":"sess-r1","message":{"text":"hello"}}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterSessionsRequireAdminJWT(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AdminAuthSecret = "admin-secret"
	r := New(cfg)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	claims := jwt.RegisteredClaims{
		Subject:   "operator",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("admin-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterSessionsOpenWithoutSecret(t *testing.T) {
	r := New(newTestConfig(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
