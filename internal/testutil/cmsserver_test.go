package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestSiteServer_ServesPages(t *testing.T) {
	srv := NewSiteServer(WordPressSite())
	defer srv.Close()

	code, body := get(t, srv.URL+"/wp-login.php")
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if !strings.Contains(body, "WordPress") {
		t.Errorf("body missing WordPress marker: %s", body)
	}

	code, _ = get(t, srv.URL+"/")
	if code != http.StatusOK {
		t.Errorf("root status = %d, want 200", code)
	}
}

func TestSiteServer_UnknownPathIs404(t *testing.T) {
	srv := NewSiteServer(WordPressSite())
	defer srv.Close()

	if code, _ := get(t, srv.URL+"/administrator"); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestSiteServer_Redirect(t *testing.T) {
	site := WordPressSite()
	site.Redirects = map[string]string{"wp-admin": "wp-login.php"}
	srv := NewSiteServer(site)
	defer srv.Close()

	code, body := get(t, srv.URL+"/wp-admin")
	if code != http.StatusOK || !strings.Contains(body, "loginform") {
		t.Errorf("redirect not followed to login page: %d %s", code, body)
	}
}

func TestSiteServer_QueryFallsBackToPath(t *testing.T) {
	srv := NewSiteServer(Site{Pages: map[string]string{"index.php": "mediawiki"}})
	defer srv.Close()

	if code, _ := get(t, srv.URL+"/index.php?title=Main_Page"); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestSiteServer_CatchAllEscapesPath(t *testing.T) {
	srv := NewSiteServer(Site{CatchAll: true})
	defer srv.Close()

	code, body := get(t, srv.URL+"/<script>")
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if strings.Contains(body, "<script>") {
		t.Errorf("echoed path was not escaped: %s", body)
	}
}

func TestDomain(t *testing.T) {
	srv := NewSiteServer(Site{})
	defer srv.Close()

	d := Domain(srv)
	if strings.HasPrefix(d, "http") || !strings.Contains(d, ":") {
		t.Errorf("Domain() = %q, want host:port", d)
	}
}
