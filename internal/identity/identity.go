// Package identity holds the identity providers a session store can
// authenticate against.
package identity

import (
	"context"
	"strings"

	"github.com/mcoot/playgate/internal/model"
)

// Provider verifies credentials and creates accounts.
//
// Implementations report failures with the model auth sentinels:
// model.ErrInvalidCredentials, model.ErrAccountExists, and model.ErrNetwork
// (wrapped) when the provider itself could not be reached.
type Provider interface {
	Authenticate(ctx context.Context, creds model.Credentials) (*model.Account, error)
	Register(ctx context.Context, profile model.Profile) (*model.Account, error)
}

// MaxPasswordBytes is the longest password bcrypt can hash
const MaxPasswordBytes = 72

// Mode selects a provider implementation
type Mode string

const (
	// ModeAcceptAll accepts any credentials
	ModeAcceptAll Mode = "accept-all"
	// ModeLocal verifies bcrypt password hashes held in storage
	ModeLocal Mode = "local"
)

// NormalizeEmail is the canonical form used for lookups and uniqueness
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
