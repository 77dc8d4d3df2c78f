package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/alicecomoura/hook-shopping-cart/internal/catalog"
	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
	"github.com/alicecomoura/hook-shopping-cart/internal/notify"
	"github.com/alicecomoura/hook-shopping-cart/internal/repository"
	"github.com/alicecomoura/hook-shopping-cart/internal/repository/snapshot"
	apperrors "github.com/alicecomoura/hook-shopping-cart/pkg/errors"
	"github.com/alicecomoura/hook-shopping-cart/pkg/tracing"
)

const tracerName = "github.com/alicecomoura/hook-shopping-cart/internal/service"

// errNoop ends an operation without touching the cart or notifying.
var errNoop = errors.New("no-op")

// Listener receives a copy of the cart after every committed mutation.
// Listeners run on the Manager's dispatch goroutine, one commit at a time
// and in commit order, so a slow listener delays later deliveries but not
// later operations. The context keeps the request's values without its
// cancellation.
type Listener func(ctx context.Context, cart domain.CartList)

type operation struct {
	name    string
	failure notify.Kind
}

var (
	opAdd    = operation{name: "add_product", failure: notify.KindAddFailed}
	opRemove = operation{name: "remove_product", failure: notify.KindRemoveFailed}
	opUpdate = operation{name: "update_product_amount", failure: notify.KindUpdateFailed}
)

type subscription struct {
	id uint64
	fn Listener
}

type delivery struct {
	ctx  context.Context
	cart domain.CartList
	subs []subscription
}

// Manager owns the canonical cart list. Mutations are serialized, validated
// against stock, persisted, and only then committed and broadcast.
type Manager struct {
	repo     repository.CartRepository
	stock    catalog.StockQuery
	products catalog.ProductCatalog
	notifier notify.Notifier
	logger   *slog.Logger
	tracer   trace.Tracer

	// opMu serializes mutations; mu guards cart for readers.
	opMu sync.Mutex
	mu   sync.RWMutex
	cart domain.CartList

	subMu     sync.Mutex
	subs      []subscription
	nextSubID uint64

	queueMu sync.Mutex
	queue   []delivery
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// NewManager loads the persisted cart and returns a ready Manager. A
// missing snapshot starts an empty cart, as does an undecodable one (after
// a warning). Any other load error is returned.
func NewManager(
	ctx context.Context,
	repo repository.CartRepository,
	stock catalog.StockQuery,
	products catalog.ProductCatalog,
	notifier notify.Notifier,
	logger *slog.Logger,
) (*Manager, error) {
	cart, err := repo.Load(ctx)
	switch {
	case errors.Is(err, snapshot.ErrCorrupt):
		logger.WarnContext(ctx, "discarding undecodable cart snapshot", slog.String("error", err.Error()))
		cart = domain.CartList{}
	case err != nil:
		return nil, fmt.Errorf("load cart: %w", err)
	}

	m := &Manager{
		repo:     repo,
		stock:    stock,
		products: products,
		notifier: notifier,
		logger:   logger,
		tracer:   tracing.Tracer(tracerName),
		cart:     cart.Clone(),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	cartEntries.Set(float64(len(m.cart)))
	go m.dispatch()

	logger.InfoContext(ctx, "cart loaded", slog.Int("entries", len(m.cart)))
	return m, nil
}

// Close delivers every commit already queued to its listeners and stops the
// dispatch goroutine. Commits made after Close are not broadcast. Close is
// safe to call more than once.
func (m *Manager) Close() {
	m.queueMu.Lock()
	m.closed = true
	m.queueMu.Unlock()
	m.signal()
	<-m.done
}

// Cart returns a copy of the current cart.
func (m *Manager) Cart() domain.CartList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cart.Clone()
}

// Subscribe registers fn for every future commit, in commit order. The
// returned function removes it and is safe to call more than once.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subs = append(m.subs, subscription{id: id, fn: fn})

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// AddProduct adds one unit of productID, appending a new entry from the
// catalog when the product is not yet in the cart.
func (m *Manager) AddProduct(ctx context.Context, productID int64) {
	m.run(ctx, opAdd, productID, func(ctx context.Context, working domain.CartList) (domain.CartList, error) {
		idx := working.FindIndex(productID)
		desired := 1
		if idx >= 0 {
			desired = working[idx].Amount + 1
		}

		if err := m.checkStock(ctx, productID, desired); err != nil {
			return nil, err
		}

		if idx >= 0 {
			working[idx].Amount = desired
			return working, nil
		}

		product, err := m.products.GetProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		return append(working, domain.NewEntry(*product)), nil
	})
}

// RemoveProduct drops productID from the cart.
func (m *Manager) RemoveProduct(ctx context.Context, productID int64) {
	m.run(ctx, opRemove, productID, func(_ context.Context, working domain.CartList) (domain.CartList, error) {
		idx := working.FindIndex(productID)
		if idx < 0 {
			return nil, apperrors.NotFound("cart entry", fmt.Sprint(productID))
		}
		return append(working[:idx], working[idx+1:]...), nil
	})
}

// UpdateProductAmount sets the amount of an entry already in the cart.
// Amounts of zero or less are ignored.
func (m *Manager) UpdateProductAmount(ctx context.Context, productID int64, amount int) {
	m.run(ctx, opUpdate, productID, func(ctx context.Context, working domain.CartList) (domain.CartList, error) {
		if amount <= 0 {
			return nil, errNoop
		}

		if err := m.checkStock(ctx, productID, amount); err != nil {
			return nil, err
		}

		idx := working.FindIndex(productID)
		if idx < 0 {
			return nil, apperrors.NotFound("cart entry", fmt.Sprint(productID))
		}
		working[idx].Amount = amount
		return working, nil
	})
}

func (m *Manager) checkStock(ctx context.Context, productID int64, desired int) error {
	stock, err := m.stock.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("get stock: %w", err)
	}
	if desired > stock.Amount {
		return apperrors.OutOfStock(productID, desired, stock.Amount)
	}
	return nil
}

type mutation func(ctx context.Context, working domain.CartList) (domain.CartList, error)

func (m *Manager) run(ctx context.Context, op operation, productID int64, mutate mutation) {
	ctx, span := m.tracer.Start(ctx, "cart."+op.name,
		trace.WithAttributes(tracing.KeyProductID.Int64(productID)),
	)
	defer span.End()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	next, err := mutate(ctx, m.Cart())
	if errors.Is(err, errNoop) {
		operationsTotal.WithLabelValues(op.name, outcomeNoop).Inc()
		tracing.SetOutcome(span, outcomeNoop, nil)
		return
	}
	if err == nil {
		if saveErr := m.repo.Save(ctx, next); saveErr != nil {
			err = fmt.Errorf("persist cart: %w", saveErr)
		}
	}
	if err != nil {
		m.fail(ctx, span, op, productID, err)
		return
	}

	m.commit(ctx, next)

	operationsTotal.WithLabelValues(op.name, outcomeSuccess).Inc()
	tracing.SetOutcome(span, outcomeSuccess, nil)
	span.SetAttributes(tracing.KeyEntries.Int(len(next)))
	m.logger.InfoContext(ctx, "cart updated",
		slog.String("operation", op.name),
		slog.Int64("product_id", productID),
		slog.Int("entries", len(next)),
	)
}

func (m *Manager) fail(ctx context.Context, span trace.Span, op operation, productID int64, err error) {
	kind, outcome := op.failure, outcomeFailed
	if errors.Is(err, apperrors.ErrOutOfStock) {
		kind, outcome = notify.KindOutOfStock, outcomeOutOfStock
	}

	operationsTotal.WithLabelValues(op.name, outcome).Inc()
	var spanErr error
	if outcome == outcomeFailed {
		spanErr = err
	}
	tracing.SetOutcome(span, outcome, spanErr)

	m.logger.InfoContext(ctx, "cart operation rejected",
		slog.String("operation", op.name),
		slog.Int64("product_id", productID),
		slog.String("outcome", outcome),
		slog.String("error", err.Error()),
	)
	notify.Dispatch(ctx, m.notifier, notify.New(kind, productID))
}

func (m *Manager) commit(ctx context.Context, next domain.CartList) {
	m.mu.Lock()
	m.cart = next.Clone()
	m.mu.Unlock()
	cartEntries.Set(float64(len(next)))

	m.subMu.Lock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()
	if len(subs) == 0 {
		return
	}

	m.queueMu.Lock()
	if m.closed {
		m.queueMu.Unlock()
		m.logger.WarnContext(ctx, "manager closed, commit not broadcast", slog.Int("entries", len(next)))
		return
	}
	m.queue = append(m.queue, delivery{ctx: context.WithoutCancel(ctx), cart: next.Clone(), subs: subs})
	m.queueMu.Unlock()
	m.signal()
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) dispatch() {
	defer close(m.done)
	for {
		m.queueMu.Lock()
		batch, closed := m.queue, m.closed
		m.queue = nil
		m.queueMu.Unlock()

		for _, d := range batch {
			for _, s := range d.subs {
				s.fn(d.ctx, d.cart.Clone())
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-m.wake
	}
}
