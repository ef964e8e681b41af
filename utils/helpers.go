package utils

import (
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// GetClaims returns the validated token claims attached to r.
func GetClaims(r *http.Request) (*validator.ValidatedClaims, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	return claims, ok && claims != nil
}

// GetSubject returns the subject of the validated token attached to r.
func GetSubject(r *http.Request) (string, bool) {
	claims, ok := GetClaims(r)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}
