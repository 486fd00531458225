package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteThenReadAndClear(t *testing.T) {
	t.Parallel()

	store := Store{}
	rr := httptest.NewRecorder()
	store.Write(rr, httptest.NewRequest(http.MethodPost, "/reset-password", nil), Success("notice.password_updated"))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("cookies = %+v, want one %s cookie", cookies, CookieName)
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	notice, ok := store.ReadAndClear(rr, req)
	if !ok {
		t.Fatal("expected notice")
	}
	if notice.Kind != KindSuccess || notice.Key != "notice.password_updated" {
		t.Fatalf("notice = %+v", notice)
	}
	cleared := rr.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("cleared cookies = %+v, want expired cookie", cleared)
	}
}

func TestWriteIgnoresInvalidNotice(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	Store{}.Write(rr, httptest.NewRequest(http.MethodGet, "/", nil), Notice{Kind: "loud", Key: "x"})
	Store{}.Write(rr, httptest.NewRequest(http.MethodGet, "/", nil), Error("  "))
	if got := len(rr.Result().Cookies()); got != 0 {
		t.Fatalf("cookies = %d, want 0", got)
	}
}

func TestReadAndClearRejectsTamperedCookie(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "%%%"})
	if _, ok := (Store{}).ReadAndClear(httptest.NewRecorder(), req); ok {
		t.Fatal("expected tampered cookie to be rejected")
	}
	if _, ok := (Store{}).ReadAndClear(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected no notice without cookie")
	}
}
