package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callhistory/internal/config"

	"github.com/gin-gonic/gin"
)

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	pair, err := m.IssuePair(time.Now(), "u1", "phone-1", "owner")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.GET("/me", RequireAccessToken(m), func(c *gin.Context) {
		id, _ := IdentityFrom(c.Request.Context())
		c.JSON(http.StatusOK, id)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"access token", "Bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
