package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/playgate/internal/dependencies/clock"
	"github.com/mcoot/playgate/internal/model"
)

// AcceptAll authenticates every attempt. Account IDs are derived from the
// email so the same address always maps to the same account.
type AcceptAll struct {
	clock clock.Clock
}

var _ Provider = (*AcceptAll)(nil)

// NewAcceptAll creates an AcceptAll provider
func NewAcceptAll(clock clock.Clock) *AcceptAll {
	return &AcceptAll{clock: clock}
}

// Authenticate always succeeds
func (p *AcceptAll) Authenticate(ctx context.Context, creds model.Credentials) (*model.Account, error) {
	email := NormalizeEmail(creds.Email)
	return p.account(email, displayNameFromEmail(email)), nil
}

// Register always succeeds, even for an email that registered before
func (p *AcceptAll) Register(ctx context.Context, profile model.Profile) (*model.Account, error) {
	email := NormalizeEmail(profile.Email)
	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		name = displayNameFromEmail(email)
	}
	return p.account(email, name), nil
}

func (p *AcceptAll) account(email, name string) *model.Account {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email))
	return &model.Account{
		ID:          model.AccountID(id.String()),
		Email:       email,
		DisplayName: name,
		CreatedAt:   p.clock.Now(),
	}
}

func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
