package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
	apperrors "github.com/alicecomoura/hook-shopping-cart/pkg/errors"
	"github.com/alicecomoura/hook-shopping-cart/pkg/httpclient"
)

const serviceName = "catalog"

// NewBreaker wraps next in the breaker catalog lookups go through. Any 5xx
// and 429 count as failures; while open, lookups fail with a
// ServiceUnavailable AppError.
func NewBreaker(next httpclient.Doer, cfg httpclient.BreakerConfig, logger *slog.Logger) *httpclient.Breaker {
	return httpclient.NewBreaker(next, cfg, logger,
		httpclient.WithFailureStatus(func(status int) bool {
			return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
		}),
		httpclient.WithOpenError(func(context.Context) error {
			return apperrors.ServiceUnavailable("catalog is temporarily unavailable")
		}),
	)
}

// Client reads stock and products from the storefront catalog API.
type Client struct {
	http    httpclient.Doer
	baseURL string
}

// NewClient creates a catalog client rooted at baseURL.
func NewClient(doer httpclient.Doer, baseURL string) *Client {
	return &Client{http: doer, baseURL: strings.TrimRight(baseURL, "/")}
}

// stockBody and productBody use pointers so absent or null fields can be
// told apart from zero values.
type stockBody struct {
	Amount *int `json:"amount"`
}

type productBody struct {
	ID    int64         `json:"id"`
	Title string        `json:"title"`
	Price *domain.Money `json:"price"`
	Image string        `json:"image"`
}

func (b productBody) toProduct(fallbackID int64) (domain.Product, error) {
	switch {
	case b.Title == "":
		return domain.Product{}, malformed("product has no title")
	case b.Price == nil:
		return domain.Product{}, malformed("product has no price")
	case b.Price.IsNegative():
		return domain.Product{}, malformed("product has a negative price")
	}
	id := b.ID
	if id == 0 {
		id = fallbackID
	}
	return domain.Product{ID: id, Title: b.Title, Price: *b.Price, Image: b.Image}, nil
}

func malformed(reason string) error {
	return fmt.Errorf("malformed %s response: %s: %w", serviceName, reason, apperrors.ErrInvalidInput)
}

// GetStock calls GET /stock/{id}. A body without an amount, or with a
// negative one, is malformed.
func (c *Client) GetStock(ctx context.Context, productID int64) (*domain.Stock, error) {
	var body stockBody
	if err := c.get(ctx, "/stock/"+strconv.FormatInt(productID, 10), &body); err != nil {
		return nil, fmt.Errorf("get stock %d: %w", productID, err)
	}
	if body.Amount == nil {
		return nil, fmt.Errorf("get stock %d: %w", productID, malformed("stock has no amount"))
	}
	if *body.Amount < 0 {
		return nil, fmt.Errorf("get stock %d: %w", productID, malformed(fmt.Sprintf("negative amount %d", *body.Amount)))
	}
	return &domain.Stock{ProductID: productID, Amount: *body.Amount}, nil
}

// GetProduct calls GET /products/{id}. The product must carry a title and
// a price.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var body productBody
	if err := c.get(ctx, "/products/"+strconv.FormatInt(productID, 10), &body); err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	product, err := body.toProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	return &product, nil
}

// ListProducts calls GET /products.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var bodies []productBody
	if err := c.get(ctx, "/products", &bodies); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]domain.Product, 0, len(bodies))
	for i, b := range bodies {
		if b.ID <= 0 {
			return nil, fmt.Errorf("list products: item %d: %w", i, malformed("product has no id"))
		}
		p, err := b.toProduct(b.ID)
		if err != nil {
			return nil, fmt.Errorf("list products: item %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s: %w", serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", serviceName, err)
	}
	return nil
}
