package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claims structure issued by the identity provider.
// company_id scopes every query the authenticated user runs.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	CompanyID            string `json:"company_id"`
	Role                 string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
