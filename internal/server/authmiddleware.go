package server

import (
	"errors"
	"net/http"

	"github.com/tjfontaine/advisor-gateway/internal/auth"
)

// AuthMiddleware attaches the caller's user id when the request carries a
// valid bearer token. Missing or invalid tokens never reject the request;
// the caller is simply anonymous. A nil verifier makes the middleware a no-op.
func AuthMiddleware(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.ExtractBearer(r)
			if err != nil {
				if !errors.Is(err, auth.ErrMissingToken) {
					AddLogField(r.Context(), "auth_error", err.Error())
				}
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				AddLogField(r.Context(), "auth_error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			AddLogField(r.Context(), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
