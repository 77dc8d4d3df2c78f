package http

import (
	"log/slog"
	"net/http"

	"github.com/alicecomoura/hook-shopping-cart/internal/catalog"
	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
	"github.com/alicecomoura/hook-shopping-cart/internal/service"
	"github.com/alicecomoura/hook-shopping-cart/pkg/httputil"
	"github.com/alicecomoura/hook-shopping-cart/pkg/pagination"
)

// ProductHandler serves the catalog listing with in-cart amounts.
type ProductHandler struct {
	products catalog.ProductCatalog
	manager  *service.Manager
	logger   *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(products catalog.ProductCatalog, manager *service.Manager, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		manager:  manager,
		logger:   logger,
	}
}

// ProductView is a catalog product plus how many units are in the cart.
type ProductView struct {
	domain.Product
	CartAmount int `json:"cart_amount"`
}

// ListProducts handles GET /api/v1/products?page=&per_page=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	amounts := h.manager.Cart().AmountByProduct()
	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = ProductView{Product: p, CartAmount: amounts[p.ID]}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.Slice(views, pagination.FromRequest(r)),
	})
}
