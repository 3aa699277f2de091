// Package testutil provides a mock web server that imitates sites built on
// common CMS platforms, for integration tests of the scanner.
package testutil

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
)

// Site describes what the mock server serves.
type Site struct {
	// Pages maps a path relative to the root (query string included, no
	// leading slash) to the HTML served with status 200. "" is the root.
	Pages map[string]string

	// Redirects maps a path to another path answered with 302.
	Redirects map[string]string

	// CatchAll, when set, answers 200 for every unknown path with a "not
	// found" page that echoes the requested path.
	CatchAll bool
}

// catchAllPage is rendered with html/template so the echoed path is escaped.
var catchAllPage = template.Must(template.New("catch-all").Parse(
	`<html><body><h1>Oops!</h1><p>Sorry, {{.}} could not be found.</p></body></html>`))

// NewSiteServer serves site over plaintext HTTP. The returned
// *httptest.Server should be closed after use.
func NewSiteServer(site Site) *httptest.Server {
	return httptest.NewServer(site.handler())
}

func (s Site) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.RequestURI(), "/")

		if target, ok := s.Redirects[key]; ok {
			http.Redirect(w, r, "/"+target, http.StatusFound)
			return
		}

		body, ok := s.Pages[key]
		if !ok && r.URL.RawQuery != "" {
			body, ok = s.Pages[strings.TrimPrefix(r.URL.Path, "/")]
		}
		if ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(body))
			return
		}

		if s.CatchAll {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			catchAllPage.Execute(w, r.URL.Path) //nolint:errcheck
			return
		}

		http.NotFound(w, r)
	})
}

// Domain returns the host:port of a plaintext test server, the form the
// scanner takes as its target.
func Domain(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

// WordPressSite is a WordPress install that also exposes a generic /admin
// panel.
func WordPressSite() Site {
	return Site{
		Pages: map[string]string{
			"":             `<html><head><link rel="stylesheet" href="/wp-content/themes/twentytwenty/style.css"></head><body>Blog</body></html>`,
			"wp-login.php": `<html><head><title>Log In &lsaquo; Blog &#8212; WordPress</title></head><body><form id="loginform"></form></body></html>`,
			"admin":        `<html><head><title>Control Panel</title></head><body><form id="signin"></form></body></html>`,
		},
	}
}

// JoomlaSite is a Joomla install with its administrator backend.
func JoomlaSite() Site {
	return Site{
		Pages: map[string]string{
			"":              `<html><head><meta name="generator" content="Joomla! - Open Source Content Management"></head></html>`,
			"administrator": `<html><head><title>Joomla! Administrator Login</title></head><body></body></html>`,
		},
	}
}

// ShopifySite is a Shopify storefront identified from its root page only.
func ShopifySite() Site {
	return Site{
		Pages: map[string]string{
			"": `<html><head><script src="//cdn.shopify.com/s/files/1/theme.js"></script></head></html>`,
		},
	}
}
