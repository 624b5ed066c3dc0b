package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognized by the application. Role assignment itself belongs to
// the identity provider; we only read the claim.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Claims carries the user's role and the profile snapshot embedded in
// student QR payloads.
type Claims struct {
	Role         string `json:"role"`
	Name         string `json:"name,omitempty"`
	Section      string `json:"section,omitempty"`
	ParentNumber string `json:"parent_number,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs an access token for the given user.
func Issue(userID, role, name, section, parentNumber, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Role:         role,
		Name:         name,
		Section:      section,
		ParentNumber: parentNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Role != RoleStudent && claims.Role != RoleAdmin {
		return Claims{}, errors.New("unknown role")
	}
	return *claims, nil
}
