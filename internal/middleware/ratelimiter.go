package middleware

import (
	"net/http"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/models/dto"
	"github.com/haguru/myblog/pkg/helper"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware answers 429 once limiter runs out of tokens. A nil limiter disables limiting.
func RateLimitMiddleware(limiter *rate.Limiter, m interfaces.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				if m != nil {
					m.IncCounter(RateLimitedTotal)
				}
				_ = helper.WriteJSON(w, http.StatusTooManyRequests, dto.ErrorResponseDTO{Error: ErrTooManyRequests})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
