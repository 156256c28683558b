package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callhistory/internal/audit"
	"callhistory/internal/auth"
	"callhistory/internal/calllog"
	"callhistory/internal/config"
	"callhistory/internal/httpapi"
	"callhistory/internal/permission"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, env string) (*gin.Engine, *auth.Manager, *permission.Broker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{App: config.AppConfig{Env: env, DeviceID: "phone-1"}}
	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	require.NoError(t, err)

	broker := permission.NewBroker()
	store := calllog.NewMemoryStore(calllog.CallRecord{Number: "5551234", CallType: calllog.CallTypeIncoming, Timestamp: 1, Duration: 5})
	ctrl := calllog.NewController(broker, store, &calllog.Pipeline{}, calllog.Options{})
	broker.OnResult(ctrl.OnPermissionResult)

	h := httpapi.Handlers{
		Auth:        m,
		CallLog:     ctrl,
		Permissions: broker,
		Audit:       audit.NewService(audit.NewMemoryRepo(0), "phone-1"),
	}
	r := gin.New()
	registerRoutes(r, h, auth.RequireAccessToken(m), cfg)
	return r, m, broker
}

func call(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, m *auth.Manager, device, role string) string {
	t.Helper()
	p, err := m.IssuePair(time.Now(), "u1", device, role)
	require.NoError(t, err)
	return p.AccessToken
}

func TestRoutes_LoginOnlyOutsideProduction(t *testing.T) {
	r, _, _ := newRouter(t, "production")
	w := call(r, http.MethodPost, "/v1/auth/login", "", gin.H{"user_id": "u", "device_id": "phone-1", "role": "owner"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	r, _, _ = newRouter(t, "local")
	w = call(r, http.MethodPost, "/v1/auth/login", "", gin.H{"user_id": "u", "device_id": "phone-1", "role": "owner"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out["access_token"])
	assert.NotEmpty(t, out["expires_at"])

	w = call(r, http.MethodGet, "/v1/me", out["access_token"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u","device_id":"phone-1","role":"owner"}`, w.Body.String())
}

func TestRoutes_CallLogAccess(t *testing.T) {
	r, m, broker := newRouter(t, "production")
	broker.Grant(calllog.CapabilityReadCallLog)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/v1/calllog/get", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/v1/calllog/get", token(t, m, "phone-2", "owner"), nil).Code)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/v1/calllog/get", token(t, m, "phone-1", "support"), nil).Code)

	reader := token(t, m, "phone-1", "reader")
	w := call(r, http.MethodPost, "/v1/calllog/get", reader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "5551234")

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/v1/permissions/pending", reader, nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/v1/admin/audit", token(t, m, "phone-1", "super_admin"), nil).Code)
}
