package server

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/courierhq/courier/internal/models"
)

// signIdentityJWT issues the gateway's own bearer credential for a logged-in
// identity. This token authenticates the caller to the gateway; it is a
// separate credential from the provider-issued OAuth session and never
// authorizes calls to the provider.
func (s *Server) signIdentityJWT(identity *models.UserIdentity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":   identity.UID,
		"email": identity.Email,
		"name":  identity.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(s.app.Config.Auth.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.app.Config.Auth.JWTSecret))
}

// validateIdentityJWT verifies a gateway bearer token and returns the uid it
// was issued for.
func (s *Server) validateIdentityJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.app.Config.Auth.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("token missing uid claim")
	}
	return uid, nil
}
