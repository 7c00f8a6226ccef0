package middleware

import (
	"encoding/json"
	"net/http"

	"hbnb-api/internal/storage"

	"github.com/rs/zerolog/log"
)

// Session opens one storage session per request and closes it once the
// handler returns. Handlers reach it through storage.FromContext.
func Session(engine storage.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := engine.Open(r.Context())
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to open storage session")
				respondError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			defer func() {
				if err := sess.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close storage session")
				}
			}()

			next.ServeHTTP(w, r.WithContext(storage.WithSession(r.Context(), sess)))
		})
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
