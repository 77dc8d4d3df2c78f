package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
	"github.com/alicecomoura/hook-shopping-cart/internal/notify"
	"github.com/alicecomoura/hook-shopping-cart/internal/service"
	"github.com/alicecomoura/hook-shopping-cart/pkg/httputil"
	"github.com/alicecomoura/hook-shopping-cart/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	manager *service.Manager
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(manager *service.Manager, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		manager: manager,
		logger:  logger,
	}
}

// --- Request DTOs ---

// UpdateAmountRequest is the JSON body of PUT /api/v1/cart/products/{productId}.
// Amounts of zero or less are accepted and leave the cart unchanged.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// --- Response DTOs ---

// CartView is the cart as shown by the storefront.
type CartView struct {
	Items domain.CartList `json:"items"`
	Size  int             `json:"size"`
	Total domain.Money    `json:"total"`
}

// MutationResponse is returned by every cart mutation.
type MutationResponse struct {
	Cart          CartView              `json:"cart"`
	Notifications []notify.Notification `json:"notifications"`
}

func newCartView(cart domain.CartList) CartView {
	return CartView{
		Items: cart.Clone(),
		Size:  cart.Size(),
		Total: cart.Total(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(h.manager.Cart())})
}

// AddProduct handles POST /api/v1/cart/products/{productId}
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) {
		h.manager.AddProduct(ctx, productID)
	})
}

// UpdateProductAmount handles PUT /api/v1/cart/products/{productId}
func (h *CartHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	h.mutate(w, r, func(ctx context.Context) {
		h.manager.UpdateProductAmount(ctx, productID, *req.Amount)
	})
}

// RemoveProduct handles DELETE /api/v1/cart/products/{productId}
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(ctx context.Context) {
		h.manager.RemoveProduct(ctx, productID)
	})
}

// mutate runs op with a request-scoped notification recorder and answers
// with the resulting cart and whatever was recorded.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context)) {
	ctx, rec := notify.WithRecorder(r.Context())
	op(ctx)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: MutationResponse{
		Cart:          newCartView(h.manager.Cart()),
		Notifications: rec.Notifications(),
	}})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "productId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "productId must be an integer, got " + strconv.Quote(raw),
			},
		})
		return 0, false
	}
	return id, true
}
