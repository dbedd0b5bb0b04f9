package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/service"

	"github.com/gin-gonic/gin"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/secure", h.userIdMiddleware, func(c *gin.Context) {
		uid, _ := c.Get("userId")
		c.JSON(http.StatusOK, gin.H{"ok": true, "userId": uid})
	})
	return r
}

func TestUserIDMiddleware_Errors(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		parseErr error
		wantMsg  string
	}{
		{
			name:    "missing header",
			header:  "",
			wantMsg: "missing Authorization header",
		},
		{
			name:    "invalid scheme",
			header:  "Token abc",
			wantMsg: "invalid Authorization header format",
		},
		{
			name:    "bearer without token",
			header:  "Bearer",
			wantMsg: "invalid Authorization header format",
		},
		{
			name:     "expired token",
			header:   "Bearer expired",
			parseErr: errors.New("expired"),
			wantMsg:  "invalid or expired token",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &service.Service{Authorization: &mockAuth{parseErr: tc.parseErr}}
			r := newMiddlewareOnlyRouter(s)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401 (body=%s)", w.Code, w.Body.String())
			}
			var out struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Error != tc.wantMsg {
				t.Fatalf("error: got %q, want %q", out.Error, tc.wantMsg)
			}
		})
	}
}

func TestUserIDMiddleware_SetsUserID(t *testing.T) {
	auth := &mockAuth{parseID: 42}
	s := &service.Service{Authorization: auth}
	r := newMiddlewareOnlyRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if auth.lastParseToken != "sometoken" {
		t.Fatalf("expected token forwarded, got %q", auth.lastParseToken)
	}
	var out struct {
		UserID int `json:"userId"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.UserID != 42 {
		t.Fatalf("expected userId 42, got %d", out.UserID)
	}
}
