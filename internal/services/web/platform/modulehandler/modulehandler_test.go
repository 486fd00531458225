package modulehandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/itemdesk/internal/identity"
	module "github.com/louisbranch/itemdesk/internal/services/web/module"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	webtemplates "github.com/louisbranch/itemdesk/internal/services/web/templates"
	"github.com/louisbranch/itemdesk/internal/services/web/webclient"
)

func TestResolveRequestViewerDelegatesToResolver(t *testing.T) {
	t.Parallel()

	want := module.Viewer{UserID: "u-1", DisplayName: "Test", SignedIn: true}
	base := NewBase(func(*http.Request) module.Viewer { return want }, flash.Store{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := base.ResolveRequestViewer(r); got != want {
		t.Fatalf("ResolveRequestViewer() = %+v, want %+v", got, want)
	}
	if got := (Base{}).ResolveRequestViewer(r); got != (module.Viewer{}) {
		t.Fatalf("nil resolver viewer = %+v, want zero", got)
	}
}

func TestRequestPrincipalUsesCredentialSlot(t *testing.T) {
	t.Parallel()

	client, err := webclient.NewRegistry(webclient.Config{}).Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	client.SetCredentials(identity.Credentials{AccessToken: "tok-1"})
	base := NewBase(func(*http.Request) module.Viewer {
		return module.Viewer{UserID: "u-1", SignedIn: true}
	}, flash.Store{})

	r := httptest.NewRequest(http.MethodGet, "/items/", nil)
	r = r.WithContext(webclient.WithClient(context.Background(), client))
	principal, ok := base.RequestPrincipal(r)
	if !ok || principal.UserID != "u-1" || principal.AccessToken != "tok-1" {
		t.Fatalf("RequestPrincipal() = %+v, %v", principal, ok)
	}

	if _, ok := NewTestBase().RequestPrincipal(r); ok {
		t.Fatal("anonymous viewer produced a principal")
	}
}

func TestWritePageAndNotFound(t *testing.T) {
	t.Parallel()

	base := NewBase(func(*http.Request) module.Viewer {
		return module.Viewer{UserID: "u-1", DisplayName: "Ada", SignedIn: true}
	}, flash.Store{})

	rr := httptest.NewRecorder()
	base.WritePage(rr, httptest.NewRequest(http.MethodGet, "/", nil), "Home", 0, webtemplates.HomePage(nil, "Ada"))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Ada") {
		t.Fatalf("WritePage() = %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	base.WriteNotFound(rr, httptest.NewRequest(http.MethodGet, "/items/x/edit", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("WriteNotFound() status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}
