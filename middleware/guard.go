package middleware

import (
	"context"
	"net/http"
	"strings"

	socialauth "github.com/nexfeed/socialauth"
)

type authResultContextKey struct{}

// AuthResultFromContext recovers the identity a guard injected for the
// current request.
func AuthResultFromContext(ctx context.Context) (*socialauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*socialauth.AuthResult)
	return res, ok
}

// Guard authenticates the bearer token and, when perms are given, requires
// the caller's role to grant every one of them. Missing or bad credentials
// are 401; a valid identity lacking a grant is 403.
func Guard(engine *socialauth.Engine, perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			for _, perm := range perms {
				if !engine.HasPermission(res.Role, perm) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth authenticates without any permission requirement.
func RequireAuth(engine *socialauth.Engine) func(http.Handler) http.Handler {
	return Guard(engine)
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
