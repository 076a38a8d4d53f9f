package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newRouter(j JWT, enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireBearer(j, enabled))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/indicators", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	r.POST("/api/sync", func(c *gin.Context) {
		claims, _ := ClaimsFromGin(c)
		c.String(http.StatusOK, claims.Subject)
	})
	return r
}

func TestRequireBearer(t *testing.T) {
	j := JWT{Secret: []byte("s3cret"), TokenTTL: time.Minute}
	syncer, _, err := j.Sign(NewClaims("cron", ScopeSync))
	if err != nil {
		t.Fatalf("sign err=%v", err)
	}
	reader, _, _ := j.Sign(NewClaims("dashboard", ScopeRead))
	other, _, _ := JWT{Secret: []byte("other")}.Sign(NewClaims("cron", ScopeSync))
	foreign := NewClaims("cron", ScopeSync)
	foreign.Audience = jwt.ClaimStrings{"another-api"}
	wrongAudience, _, _ := j.Sign(foreign)

	cases := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"health open", http.MethodGet, "/healthz", "", http.StatusOK},
		{"missing token", http.MethodPost, "/api/sync", "", http.StatusUnauthorized},
		{"wrong scheme", http.MethodPost, "/api/sync", "Basic " + syncer, http.StatusUnauthorized},
		{"wrong secret", http.MethodPost, "/api/sync", "Bearer " + other, http.StatusUnauthorized},
		{"wrong audience", http.MethodPost, "/api/sync", "Bearer " + wrongAudience, http.StatusUnauthorized},
		{"read scope cannot sync", http.MethodPost, "/api/sync", "Bearer " + reader, http.StatusForbidden},
		{"read scope reads", http.MethodGet, "/api/indicators", "Bearer " + reader, http.StatusOK},
		{"sync scope reads", http.MethodGet, "/api/indicators", "Bearer " + syncer, http.StatusOK},
		{"sync scope syncs", http.MethodPost, "/api/sync", "Bearer " + syncer, http.StatusOK},
	}
	r := newRouter(j, true)
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: status=%d want=%d", tc.name, w.Code, tc.want)
		}
	}
}

func TestRequireBearer_Disabled(t *testing.T) {
	r := newRouter(JWT{}, false)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", w.Code, http.StatusOK)
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	j := JWT{Secret: []byte("s3cret")}
	claims := NewClaims("cron", ScopeSync)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	tok, _, err := j.Sign(claims)
	if err != nil {
		t.Fatalf("sign err=%v", err)
	}
	if _, err := j.Verify(tok); err == nil {
		t.Fatalf("expired token verified")
	}
	j.Leeway = 5 * time.Minute
	if _, err := j.Verify(tok); err != nil {
		t.Fatalf("err=%v want token accepted within leeway", err)
	}
}

func TestClaims_Allows(t *testing.T) {
	cases := []struct {
		scope string
		want  string
		ok    bool
	}{
		{"calendar:read", ScopeRead, true},
		{"calendar:read", ScopeSync, false},
		{"calendar:sync", ScopeRead, true},
		{"profile calendar:sync", ScopeSync, true},
		{"", ScopeRead, false},
	}
	for _, tc := range cases {
		if got := (Claims{Scope: tc.scope}).Allows(tc.want); got != tc.ok {
			t.Fatalf("Allows(%q) with scope %q=%v want=%v", tc.want, tc.scope, got, tc.ok)
		}
	}
}
