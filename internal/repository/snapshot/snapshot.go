package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
	"github.com/alicecomoura/hook-shopping-cart/internal/storage"
	apperrors "github.com/alicecomoura/hook-shopping-cart/pkg/errors"
)

// DefaultKey is the key the storefront has always used for its cart.
const DefaultKey = "@RocketShoes:cart"

// ErrCorrupt is returned by Load when the stored value is not a JSON array
// of cart entries, or when the entries repeat a product or carry an amount
// below 1.
var ErrCorrupt = errors.New("corrupt cart snapshot")

// Repository stores the cart as a JSON array under one fixed key.
type Repository struct {
	kv  storage.KeyValue
	key string
}

// New creates a snapshot repository. An empty key selects DefaultKey.
func New(kv storage.KeyValue, key string) *Repository {
	if key == "" {
		key = DefaultKey
	}
	return &Repository{kv: kv, key: key}
}

// Key returns the storage key in use.
func (r *Repository) Key() string {
	return r.key
}

// Load decodes the stored snapshot.
func (r *Repository) Load(ctx context.Context) (domain.CartList, error) {
	data, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.CartList{}, nil
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	var list domain.CartList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := list.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if list == nil {
		list = domain.CartList{}
	}
	return list, nil
}

// Save encodes cart and writes it under the key.
func (r *Repository) Save(ctx context.Context, cart domain.CartList) error {
	data, err := json.Marshal(cart.Clone())
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}
