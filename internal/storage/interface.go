package storage

import (
	"context"

	"github.com/mcoot/playgate/internal/model"
)

// Storage persists identity provider accounts. Viewer sessions and playback
// state are never stored here.
type Storage interface {
	// SaveAccount creates or updates an account. It fails with
	// model.ErrAccountExists when the email belongs to a different account.
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id model.AccountID) error
}
