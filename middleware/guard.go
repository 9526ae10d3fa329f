package middleware

import (
	"context"
	"net/http"
	"strings"

	identity "github.com/inkhaven/identity"
)

type authResultContextKey struct{}

// AuthFromContext returns the identity injected by [Guard], if any.
func AuthFromContext(ctx context.Context) (*identity.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*identity.AuthResult)
	return res, ok
}

// Guard returns middleware that authenticates requests against the engine.
// The access token is read from the Authorization header, falling back to
// the accessToken cookie. Rejected requests get a bare 401.
func Guard(engine *identity.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := accessToken(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	cookie, err := r.Cookie("accessToken")
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
