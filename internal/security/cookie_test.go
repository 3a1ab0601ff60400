package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewCookieManagerSameSiteMapping(t *testing.T) {
	if got := NewCookieManager("", true, "strict", time.Hour).SameSite; got != http.SameSiteStrictMode {
		t.Fatalf("strict mapping mismatch: %v", got)
	}
	if got := NewCookieManager("", true, "none", time.Hour).SameSite; got != http.SameSiteNoneMode {
		t.Fatalf("none mapping mismatch: %v", got)
	}
	if got := NewCookieManager("", true, "unexpected", time.Hour).SameSite; got != http.SameSiteLaxMode {
		t.Fatalf("default mapping mismatch: %v", got)
	}
}

func TestCookieManagerSetSessionCookieFlags(t *testing.T) {
	mgr := NewCookieManager("example.com", true, "lax", 7*24*time.Hour)
	rr := httptest.NewRecorder()
	mgr.SetSessionCookie(rr, "tok")

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "tok" {
		t.Fatalf("unexpected cookie: %#v", c)
	}
	if c.Path != "/" || !c.HttpOnly || !c.Secure || c.Domain != "example.com" {
		t.Fatalf("unexpected cookie attributes: %#v", c)
	}
	if c.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected max-age: %d", c.MaxAge)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected same-site: %v", c.SameSite)
	}
}

func TestCookieManagerClearSessionCookie(t *testing.T) {
	mgr := NewCookieManager("", false, "lax", time.Hour)
	rr := httptest.NewRecorder()
	mgr.ClearSessionCookie(rr)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "" || c.MaxAge != -1 {
		t.Fatalf("expected cleared cookie, got %#v", c)
	}
}

func TestGetCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "x"})

	if got := GetCookie(req, SessionCookieName); got != "x" {
		t.Fatalf("unexpected cookie value %q", got)
	}
	if got := GetCookie(req, "missing"); got != "" {
		t.Fatalf("expected empty cookie value for missing cookie, got %q", got)
	}
}
