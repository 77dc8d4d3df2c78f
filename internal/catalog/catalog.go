package catalog

import (
	"context"

	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
)

// StockQuery answers how many units of a product are available.
type StockQuery interface {
	GetStock(ctx context.Context, productID int64) (*domain.Stock, error)
}

// ProductCatalog looks up product details.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}
