package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Revalidator confirms that a session's admin still exists and may act.
type Revalidator interface {
	Revalidate(ctx context.Context, s *Session) error
}

// Middleware admits requests carrying a valid bearer token whose session
// passes revalidation.
func Middleware(secret string, rv Revalidator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "unauthorized")
				return
			}
			sess, err := ParseSession(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			if err := rv.Revalidate(r.Context(), sess); err != nil {
				log.Info("session rejected", zap.String("username", sess.Username), zap.Error(err))
				unauthorized(w, "session no longer valid")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
