package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"feastline/shared"
	"feastline/shared/cache"
	"feastline/shared/constant"
	"feastline/transport/http/response"
)

const (
	cacheKeyRateLimit = "limiter"
)

// RateLimit counts requests per access token, or per client address and user agent for
// anonymous callers, in fixed redis windows. A cache outage lets requests through.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.config.App.RateLimiter.Enable {
				next.ServeHTTP(w, r)

				return
			}

			maxReqs := a.config.App.RateLimiter.MaxRequests
			windowSecs := a.config.App.RateLimiter.WindowSeconds
			cacheKey := a.limiterKey(r)

			var count int

			err := a.cache.Get(r.Context(), cacheKey, &count)
			switch {
			case errors.Is(err, cache.Nil):
				count = 1
			case err != nil:
				next.ServeHTTP(w, r)

				return
			default:
				count++
			}

			if count > maxReqs {
				response.WithRequestLimitExceeded(w)

				return
			}

			if err = a.cache.Save(r.Context(), cacheKey, count, windowSecs); err != nil {
				next.ServeHTTP(w, r)

				return
			}

			w.Header().Set(constant.RequestHeaderRateLimit, strconv.Itoa(maxReqs))
			w.Header().Set(constant.RequestHeaderRateLimitRemaining, strconv.Itoa(max(0, maxReqs-count)))
			w.Header().Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(windowSecs))

			next.ServeHTTP(w, r)
		})
	}
}

func (a *appMiddleware) limiterKey(r *http.Request) string {
	if token := accessToken(r); token != "" {
		return shared.BuildCacheKey(cacheKeyRateLimit, shared.HashToken(token))
	}

	return shared.BuildCacheKey(cacheKeyRateLimit, a.getClientIP(r), a.getUA(r))
}

func (a *appMiddleware) getUA(r *http.Request) string {
	ua := r.Header.Get(constant.RequestHeaderUserAgent)
	if ua == "" {
		ua = "unknown"
	}

	return ua
}

func (a *appMiddleware) getClientIP(r *http.Request) string {
	// X-Forwarded-For may carry a proxy chain; the first hop is the client.
	if xff := r.Header.Get(constant.RequestHeaderForwardedFor); xff != "" {
		if client, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(client)
		}

		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get(constant.RequestHeaderRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	return r.RemoteAddr
}
