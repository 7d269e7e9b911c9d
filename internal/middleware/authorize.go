package middleware

import (
	"crypto/ecdsa"
	"net/http"
	"strings"

	"github.com/haguru/myblog/internal/auth"
	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/models/dto"
	"github.com/haguru/myblog/internal/policy"
	"github.com/haguru/myblog/pkg/helper"
)

// Authorize enforces pol on every request. The caller is identified by a
// session token in the session cookie or an Authorization bearer header; a
// missing, expired or forged token, or one issued for another audience,
// leaves the request anonymous. Allowed
// requests carry the principal in their context (see auth.PrincipalFrom).
//
// Anonymous callers hitting a protected path are redirected to the login page
// when pol has form login, and get 401 otherwise. Authenticated callers
// lacking a role get 403.
func Authorize(pol *policy.Policy, publicKey *ecdsa.PublicKey, audience string, logger interfaces.Logger, m interfaces.Metrics) func(http.Handler) http.Handler {
	formLogin := pol.FormLogin()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromRequest(r, pol, publicKey, audience, logger)
			decision := pol.Decide(r.URL.Path, principal)
			if m != nil {
				m.IncCounterVec(AuthorizationDecisionsTotal, decision.String())
			}

			switch decision {
			case policy.Allow:
				if principal != nil {
					r = r.WithContext(auth.WithPrincipal(r.Context(), principal))
				}
				next.ServeHTTP(w, r)
			case policy.Unauthenticated:
				logger.Debug("Unauthenticated request", "func", helper.GetFuncName(), "path", r.URL.Path)
				if formLogin != nil {
					http.Redirect(w, r, formLogin.LoginPage, http.StatusFound)
					return
				}
				_ = helper.WriteJSON(w, http.StatusUnauthorized, dto.ErrorResponseDTO{Error: ErrUnauthorized})
			default:
				logger.Warn("Forbidden request", "func", helper.GetFuncName(), "path", r.URL.Path, "user", principal.Username)
				_ = helper.WriteJSON(w, http.StatusForbidden, dto.ErrorResponseDTO{Error: ErrForbidden})
			}
		})
	}
}

func principalFromRequest(r *http.Request, pol *policy.Policy, publicKey *ecdsa.PublicKey, audience string, logger interfaces.Logger) *auth.Principal {
	token := sessionToken(r)
	if token == "" {
		return nil
	}
	claims, err := auth.VerifyToken(token, audience, publicKey)
	if err != nil {
		logger.Debug("Ignoring invalid session token", "func", helper.GetFuncName(), "error", err)
		return nil
	}
	return &auth.Principal{Username: claims.UserID, Roles: pol.RolesFor(claims.UserID)}
}

// sessionToken prefers the bearer header over the session cookie.
func sessionToken(r *http.Request) string {
	if header := r.Header.Get(AuthorizationHeader); strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
