package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/models/dto"
	"github.com/haguru/myblog/pkg/helper"
)

// CSRF rejects state-changing requests whose Origin, or Referer when Origin
// is absent, is not one of allowedOrigins. Requests carrying neither are rejected too.
func CSRF(allowedOrigins []string, m interfaces.Metrics) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowedSet[normalizeOrigin(origin)] = true
	}

	reject := func(w http.ResponseWriter, msg string) {
		if m != nil {
			m.IncCounter(CSRFRejectedTotal)
		}
		_ = helper.WriteJSON(w, http.StatusForbidden, dto.ErrorResponseDTO{Error: msg})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}

			if origin := r.Header.Get("Origin"); origin != "" {
				if !allowedSet[normalizeOrigin(origin)] {
					reject(w, ErrCSRFOrigin)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if referer := r.Header.Get("Referer"); referer != "" {
				if !allowedSet[normalizeOrigin(extractOrigin(referer))] {
					reject(w, ErrCSRFReferer)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			reject(w, ErrCSRFMissing)
		})
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

// extractOrigin returns scheme://host[:port] of rawURL, or "" when it does not parse.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
