package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"yt-notify/pkg/logger"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig allows the methods and headers the channel API uses.
// Origins are left empty and must come from configuration.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Type", "X-Request-ID", "Retry-After"},
		MaxAge:         86400,
	}
}

// CORS answers preflight requests and tags responses for allowed origins.
// Requests from other origins pass through without CORS headers.
func CORS(config *CORSConfig, logger *logger.Logger) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultCORSConfig()
	}

	origins := make(map[string]struct{}, len(config.AllowedOrigins))
	wildcard := false
	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			continue
		}
		origins[origin] = struct{}{}
	}

	static := http.Header{}
	if len(config.AllowedMethods) > 0 {
		static.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
	}
	if len(config.AllowedHeaders) > 0 {
		static.Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
	}
	if len(config.ExposedHeaders) > 0 {
		static.Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
	}
	if config.MaxAge > 0 {
		static.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
	}
	if config.AllowCredentials {
		static.Set("Access-Control-Allow-Credentials", "true")
	}

	allowOrigin := func(origin string) (string, bool) {
		if _, ok := origins[origin]; ok {
			return origin, true
		}
		if wildcard {
			// Credentialed requests cannot use "*"
			if config.AllowCredentials {
				return origin, true
			}
			return "*", true
		}
		return "", false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			value, ok := allowOrigin(origin)
			if !ok {
				logger.WithField("origin", origin).Debug("CORS origin not allowed")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", value)
			for key, values := range static {
				h[key] = values
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
