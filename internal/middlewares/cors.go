package middlewares

import (
	"net/http"
	"os"
	"strings"
)

// CorsMiddleware allows the origins listed in CORS_ALLOWED_ORIGINS
// (comma separated). With the variable unset no CORS headers are sent.
func CorsMiddleware(next http.Handler) http.Handler {
	allowed := parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed.permits(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type origins map[string]struct{}

func parseOrigins(raw string) origins {
	out := origins{}
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out[strings.TrimSuffix(o, "/")] = struct{}{}
		}
	}
	return out
}

func (o origins) permits(origin string) bool {
	if _, ok := o["*"]; ok {
		return true
	}
	_, ok := o[origin]
	return ok
}
