package server

import (
	"net/http"
	"net/url"
	"strings"
)

// shareLink builds the public download URL for an uploaded file:
// {origin}/file/{percent-encoded original name}.
//
// The origin comes from the Origin header when the browser sent one,
// falling back to the configured base URL and finally to the request
// host. In local dev this is localhost:8080; behind a proxy it is the
// proxy host.
func shareLink(r *http.Request, baseURL, originalName string) string {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = strings.TrimSuffix(baseURL, "/")
	}
	if origin == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		host := r.Host
		if host == "" {
			host = "localhost:8080"
		}
		origin = scheme + "://" + host
	}
	return origin + "/file/" + url.PathEscape(originalName)
}
