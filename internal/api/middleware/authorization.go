package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	internaljwt "lobby-backend/internal/jwt"
)

type errorBody struct {
	Message string `json:"message"`
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errorBody{Message: message})
}

func ValidateJWTMiddleware(issuer *internaljwt.Issuer, role internaljwt.Role) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				unauthorized(w, "Unauthorized")
				return
			}

			if _, err := issuer.ParseToken(tokenString, role); err != nil {
				unauthorized(w, "Unauthorized")
				return
			}

			next(w, r)
		}
	}
}

func ValidateAdminJWT(issuer *internaljwt.Issuer) Middleware {
	return ValidateJWTMiddleware(issuer, internaljwt.RoleAdmin)
}
