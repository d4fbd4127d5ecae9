package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired verifies the access token and resolves the acting user
// into the request context. Downstream services read the actor from the
// context; they never touch the token themselves.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Missing access token")
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "access" {
				response.Unauthorized(w, "Invalid token type")
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				response.Unauthorized(w, "Invalid token claims")
				return
			}

			name, _ := claims["name"].(string)

			roleStr, ok := claims["role"].(string)
			role := user.Role(roleStr)
			if !ok || !role.Valid() {
				response.Unauthorized(w, "Invalid token claims")
				return
			}

			actor := user.Actor{ID: userID, Name: name, Role: role}
			next.ServeHTTP(w, r.WithContext(user.WithActor(r.Context(), actor)))
		}
		return http.HandlerFunc(hfn)
	}
}
