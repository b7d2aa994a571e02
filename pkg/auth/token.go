package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/moodjournal-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSigningMethod = jwt.SigningMethodRS256

var (
	ErrMissingSubject      = errors.New("session token has no subject")
	ErrUnauthorizedParty   = errors.New("session token issued for an unknown party")
	errPublicKeyRequired   = errors.New("jwt public key is required")
	errTokenStringRequired = errors.New("token is required")
)

// Verifier checks identity provider session tokens offline against the
// instance's PEM encoded public key.
type Verifier struct {
	key     *rsa.PublicKey
	issuer  string
	parties []string
	leeway  time.Duration
}

// NewVerifier parses the configured public key.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	pem := strings.TrimSpace(cfg.JWTPublicKey)
	if pem == "" {
		return nil, errPublicKeyRequired
	}
	// env files often carry the PEM with escaped newlines
	pem = strings.ReplaceAll(pem, `\n`, "\n")

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parsing jwt public key: %w", err)
	}

	parties := make([]string, 0, len(cfg.AuthorizedParties))
	for _, p := range cfg.AuthorizedParties {
		if p = strings.TrimSpace(p); p != "" {
			parties = append(parties, p)
		}
	}

	return &Verifier{
		key:     key,
		issuer:  strings.TrimSpace(cfg.Issuer),
		parties: parties,
		leeway:  cfg.Leeway,
	}, nil
}

// Verify validates signature, expiry, issuer and authorized party, and
// returns the typed claims.
func (v *Verifier) Verify(tokenString string) (*SessionClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errTokenStringRequired
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return v.key, nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.AuthorizedParty != "" && len(v.parties) > 0 && !slices.Contains(v.parties, claims.AuthorizedParty) {
		return nil, ErrUnauthorizedParty
	}

	return claims, nil
}
