package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriter_LevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	NewWriter("production", &buf).Debug("hidden")
	assert.Zero(t, buf.Len())

	NewWriter("dev", &buf).Debug("shown", "k", "v")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "callhistory", rec["service"])
	assert.Equal(t, "v", rec["k"])
}

func TestFrom_FallsBackToDefault(t *testing.T) {
	assert.NotNil(t, From(context.Background()))

	l := Discard()
	assert.Same(t, l, From(With(context.Background(), l)))
}

func TestMiddleware_PropagatesRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWriter("production", &buf)))
	r.GET("/x", func(c *gin.Context) {
		assert.Same(t, FromGin(c), From(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-1", w.Header().Get(headerRequestID))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "rid-1", rec["request_id"])
	assert.Equal(t, "/x", rec["path"])
	assert.EqualValues(t, http.StatusNoContent, rec["status"])
}
