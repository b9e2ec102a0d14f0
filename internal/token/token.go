package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/playgate/internal/dependencies/clock"
	"github.com/mcoot/playgate/internal/model"
)

const issuerName = "playgate"

// ErrInvalidToken is returned for malformed, forged or expired tokens
var ErrInvalidToken = errors.New("invalid viewer token")

// Config holds token settings
type Config struct {
	Secret string
	TTL    time.Duration
}

// DefaultConfig returns default token configuration. Secret must be set.
func DefaultConfig() Config {
	return Config{
		TTL: 24 * time.Hour,
	}
}

// Claims carries the viewer a token grants access to
type Claims struct {
	MediaID string `json:"media"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 viewer tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewIssuer creates an Issuer
func NewIssuer(cfg Config, clock clock.Clock) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Issuer{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		clock:  clock,
	}, nil
}

// Issue returns a signed token for the viewer
func (i *Issuer) Issue(viewerID model.ViewerID, mediaID model.MediaID) (string, error) {
	now := i.clock.Now()
	claims := &Claims{
		MediaID: string(mediaID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   string(viewerID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the viewer it names
func (i *Issuer) Parse(tokenStr string) (model.ViewerID, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return model.ViewerID(claims.Subject), nil
}
