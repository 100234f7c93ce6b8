package middleware

import (
	"net/http"
	"strings"

	"petai/internal/infra"
)

// RefererHeader carries the trusted app origin from the edge to the API handlers.
const RefererHeader = "X-App-Referer"

const defaultAppHost = "localhost:3000"

// Referer stamps every /api/ request with the app origin that upstream
// providers expect in HTTP-Referer. appURL wins over the request Host.
// Any client-supplied value is overwritten.
func Referer(appURL string) func(http.Handler) http.Handler {
	appURL = strings.TrimSpace(appURL)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				host := appURL
				if host == "" {
					host = r.Host
				}
				if host == "" {
					host = defaultAppHost
				}
				r.Header.Set(RefererHeader, infra.AppOrigin(host))
			}
			next.ServeHTTP(w, r)
		})
	}
}
