package repository

import (
	"context"

	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
)

// CartRepository persists the cart snapshot.
type CartRepository interface {
	// Load returns the persisted list. A missing snapshot yields an empty
	// list and no error.
	Load(ctx context.Context) (domain.CartList, error)

	// Save overwrites the persisted list.
	Save(ctx context.Context, cart domain.CartList) error
}
