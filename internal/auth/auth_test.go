package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newRouter(a Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", a.RequireUser(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": Role(c)})
	})
	r.GET("/admin", a.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestSignVerifyRoundTrip(t *testing.T) {
	j := JWT{Secret: []byte("s3cret"), TokenTTL: time.Hour}
	tok, exp, err := j.Sign(Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past")
	}
	claims, err := j.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 || claims.Role != RoleAdmin {
		t.Fatalf("claims: %+v id=%d err=%v", claims, id, err)
	}
	if _, err := (JWT{Secret: []byte("other")}).Verify(tok); err == nil {
		t.Fatalf("expected verify with wrong secret to fail")
	}
}

func TestRequireUserBearer(t *testing.T) {
	j := JWT{Secret: []byte("k"), TokenTTL: time.Hour}
	r := newRouter(Authenticator{JWT: j})
	tok, _, _ := j.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
}

func TestDisabledUsesHeaders(t *testing.T) {
	r := newRouter(Authenticator{Disabled: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-User-ID", "3")
	req.Header.Set("X-User-Role", "admin")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad id, got %d", w.Code)
	}
}
