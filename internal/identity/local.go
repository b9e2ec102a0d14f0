package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/playgate/internal/dependencies/clock"
	"github.com/mcoot/playgate/internal/model"
	"github.com/mcoot/playgate/internal/storage"
)

// Local keeps password accounts in storage.Storage
type Local struct {
	storage storage.Storage
	clock   clock.Clock
	cost    int
	logger  *slog.Logger
}

var _ Provider = (*Local)(nil)

// LocalConfig holds configuration for the local provider
type LocalConfig struct {
	// BcryptCost is the hashing cost for new passwords
	BcryptCost int
}

// DefaultLocalConfig returns default local provider configuration
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// NewLocal creates a Local provider
func NewLocal(storage storage.Storage, clock clock.Clock, cfg LocalConfig, logger *slog.Logger) *Local {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultLocalConfig().BcryptCost
	}
	return &Local{
		storage: storage,
		clock:   clock,
		cost:    cfg.BcryptCost,
		logger:  logger.With(slog.String("component", "identity")),
	}
}

// Authenticate checks the password against the stored hash
func (p *Local) Authenticate(ctx context.Context, creds model.Credentials) (*model.Account, error) {
	account, err := p.storage.GetAccountByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, p.unreachable("authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return account, nil
}

// Register creates a new account with a hashed password
func (p *Local) Register(ctx context.Context, profile model.Profile) (*model.Account, error) {
	if len(profile.Password) > MaxPasswordBytes {
		return nil, model.ErrPasswordTooLong
	}
	email := NormalizeEmail(profile.Email)

	_, err := p.storage.GetAccountByEmail(ctx, email)
	if err == nil {
		return nil, model.ErrAccountExists
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, p.unreachable("register", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		ID:           model.AccountID(uuid.NewString()),
		Email:        email,
		DisplayName:  strings.TrimSpace(profile.DisplayName),
		PasswordHash: string(hash),
		CreatedAt:    p.clock.Now(),
	}

	if err := p.storage.SaveAccount(ctx, account); err != nil {
		// A concurrent sign-up can win between the lookup and the save
		if errors.Is(err, model.ErrAccountExists) {
			return nil, err
		}
		return nil, p.unreachable("register", err)
	}

	p.logger.Info("account created", slog.String("account_id", string(account.ID)))
	return account, nil
}

func (p *Local) unreachable(op string, err error) error {
	p.logger.Error("identity storage failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %v", model.ErrNetwork, err)
}
