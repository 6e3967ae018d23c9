package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// CORS answers preflight requests and sets the CORS headers for origin
// ("*" allows any).
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, X-Requested-With")
			if origin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				log.Debug().Str("module", "middleware.cors").Str("path", r.URL.Path).Msg("handled preflight request")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
