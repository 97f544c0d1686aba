package handlers

import (
	"context"

	"github.com/mingunC/renovationPlatform-sub000/models"
)

// AccountStore keeps the contact details the notifier sends to.
type AccountStore interface {
	SaveAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
}
