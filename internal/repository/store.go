package repository

import (
	"context"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/model"
)

// CredentialStore is the durable mapping from email to user record with a
// secondary lookup by id.  Implementations are chosen at startup.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, email string, patch model.UserPatch) error
}
