package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the identity provider's session token claims. The
// subject is the user id every journal row is scoped by.
type SessionClaims struct {
	AuthorizedParty string `json:"azp,omitempty"`
	SessionID       string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *SessionClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
