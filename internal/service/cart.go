package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/event"
	"github.com/utafrali/rocketshoes/internal/notify"
	"github.com/utafrali/rocketshoes/internal/repository"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/logger"
)

// DefaultStorageKey is the snapshot slot shared with the storefront.
const DefaultStorageKey = "@RocketShoes:cart"

// Outcome classifies the result of a cart operation.
type Outcome string

const (
	// OutcomeApplied means the cart changed and the snapshot was written.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored means the request was a silent no-op.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeStockExceeded means the requested amount is above stock.
	OutcomeStockExceeded Outcome = "stock_exceeded"
	// OutcomeNotFound means the product is not in the cart.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeFailed means a lookup or the snapshot write failed.
	OutcomeFailed Outcome = "failed"
)

// Result is what every cart operation returns. Cart is the state after the
// operation, which equals the prior state unless Outcome is OutcomeApplied.
type Result struct {
	Outcome      Outcome              `json:"outcome"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Cart         domain.Cart          `json:"cart"`
}

// UpdateProductAmount is the input of CartManager.UpdateProductAmount.
type UpdateProductAmount struct {
	ProductID int64 `json:"product_id"`
	Amount    int   `json:"amount"`
}

// StockLookup reports how many units of a product are available.
type StockLookup interface {
	Stock(ctx context.Context, productID int64) (domain.Stock, error)
}

// ProductLookup fetches display attributes for a product.
type ProductLookup interface {
	Product(ctx context.Context, productID int64) (domain.Product, error)
}

// EventPublisher is told about every applied mutation.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, operation string, productID int64, cart domain.Cart) error
}

// Dependencies are the collaborators of a CartManager. Events is optional;
// a nil Notifier logs notifications; an empty StorageKey means DefaultStorageKey.
type Dependencies struct {
	Repo       repository.SnapshotRepository
	StorageKey string
	Stock      StockLookup
	Catalog    ProductLookup
	Notifier   notify.Notifier
	Events     EventPublisher
	Logger     *slog.Logger
}

var cartOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// CartManager owns the shopper's cart. Mutations are serialized: each one
// runs from reading the current cart through writing the snapshot before the
// next starts, so concurrent calls never lose updates. Cart events and
// notifications go out after that section ends. Reads never wait on the
// network.
type CartManager struct {
	repo     repository.SnapshotRepository
	key      string
	stock    StockLookup
	catalog  ProductLookup
	notifier notify.Notifier
	events   EventPublisher
	logger   *slog.Logger

	writeMu sync.Mutex   // serializes mutations
	stateMu sync.RWMutex // guards cart
	cart    domain.Cart
}

// NewCartManager builds a manager whose cart is restored from the snapshot
// under deps.StorageKey. A missing or unreadable snapshot yields an empty
// cart; the reason is logged.
func NewCartManager(ctx context.Context, deps Dependencies) *CartManager {
	m := &CartManager{
		repo:     deps.Repo,
		key:      deps.StorageKey,
		stock:    deps.Stock,
		catalog:  deps.Catalog,
		notifier: deps.Notifier,
		events:   deps.Events,
		logger:   deps.Logger,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.key == "" {
		m.key = DefaultStorageKey
	}
	if m.notifier == nil {
		m.notifier = notify.NewLogNotifier(m.logger)
	}

	m.cart = m.restore(ctx)
	return m
}

func (m *CartManager) restore(ctx context.Context) domain.Cart {
	log := logger.WithContext(ctx, m.logger).With(slog.String("storage_key", m.key))

	cart, err := m.repo.Get(ctx, m.key)
	switch {
	case err == nil:
		log.Info("cart restored from snapshot",
			slog.Int("size", cart.Size()),
			slog.Int("item_count", cart.ItemCount()),
		)
		return cart
	case errors.Is(err, apperrors.ErrNotFound):
		log.Info("no cart snapshot, starting empty")
	case errors.Is(err, domain.ErrCorruptSnapshot):
		log.Warn("cart snapshot unreadable, starting empty", slog.String("error", err.Error()))
	default:
		log.Error("cart snapshot load failed, starting empty", slog.String("error", err.Error()))
	}
	return domain.Cart{}
}

// StorageKey returns the snapshot slot this manager writes to.
func (m *CartManager) StorageKey() string {
	return m.key
}

// Cart returns a copy of the current cart.
func (m *CartManager) Cart() domain.Cart {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.cart.Clone()
}

// AddProduct adds one unit of productID. A product already in the cart has
// its amount incremented; a new one is fetched from the catalog and appended
// with amount 1. The addition is refused when it would exceed stock.
func (m *CartManager) AddProduct(ctx context.Context, productID int64) Result {
	return m.run(ctx, func() (Result, effects) { return m.addProduct(ctx, productID) })
}

func (m *CartManager) addProduct(ctx context.Context, productID int64) (Result, effects) {
	const op = event.OperationAdd
	idx, found := m.cart.FindIndex(productID)

	stock, err := m.stock.Stock(ctx, productID)
	if err != nil {
		return m.fail(ctx, op, productID, OutcomeFailed, notify.AddFailed(productID), err)
	}

	target := 1
	if found {
		target = m.cart[idx].Amount + 1
	}
	if target > stock.Amount {
		return m.fail(ctx, op, productID, OutcomeStockExceeded, notify.StockExceeded(productID), nil)
	}

	next := m.cart.Clone()
	if found {
		next[idx].Amount = target
	} else {
		product, err := m.catalog.Product(ctx, productID)
		if err != nil {
			return m.fail(ctx, op, productID, OutcomeFailed, notify.AddFailed(productID), err)
		}
		next = append(next, domain.CartEntry{Product: product, Amount: 1})
	}

	if err := m.commit(ctx, next); err != nil {
		return m.fail(ctx, op, productID, OutcomeFailed, notify.AddFailed(productID), err)
	}
	return m.applied(op, productID)
}

// RemoveProduct deletes productID from the cart, keeping the order of the
// remaining entries. Removing a product that is not in the cart is reported
// as a failure.
func (m *CartManager) RemoveProduct(ctx context.Context, productID int64) Result {
	return m.run(ctx, func() (Result, effects) { return m.removeProduct(ctx, productID) })
}

func (m *CartManager) removeProduct(ctx context.Context, productID int64) (Result, effects) {
	const op = event.OperationRemove
	idx, found := m.cart.FindIndex(productID)
	if !found {
		return m.fail(ctx, op, productID, OutcomeNotFound, notify.RemoveFailed(productID), nil)
	}

	next := make(domain.Cart, 0, len(m.cart)-1)
	next = append(next, m.cart[:idx].Clone()...)
	next = append(next, m.cart[idx+1:].Clone()...)

	if err := m.commit(ctx, next); err != nil {
		return m.fail(ctx, op, productID, OutcomeFailed, notify.RemoveFailed(productID), err)
	}
	return m.applied(op, productID)
}

// UpdateProductAmount sets the amount of a product already in the cart.
// Amounts of zero or less are ignored without any lookup or notification.
func (m *CartManager) UpdateProductAmount(ctx context.Context, in UpdateProductAmount) Result {
	return m.run(ctx, func() (Result, effects) { return m.updateProductAmount(ctx, in) })
}

func (m *CartManager) updateProductAmount(ctx context.Context, in UpdateProductAmount) (Result, effects) {
	const op = event.OperationUpdate
	if in.Amount <= 0 {
		cartOperationsTotal.WithLabelValues(op, string(OutcomeIgnored)).Inc()
		return Result{Outcome: OutcomeIgnored, Cart: m.Cart()}, effects{}
	}

	stock, err := m.stock.Stock(ctx, in.ProductID)
	if err != nil {
		return m.fail(ctx, op, in.ProductID, OutcomeFailed, notify.UpdateFailed(in.ProductID), err)
	}
	if in.Amount > stock.Amount {
		return m.fail(ctx, op, in.ProductID, OutcomeStockExceeded, notify.StockExceeded(in.ProductID), nil)
	}

	idx, found := m.cart.FindIndex(in.ProductID)
	if !found {
		return m.fail(ctx, op, in.ProductID, OutcomeNotFound, notify.UpdateFailed(in.ProductID), nil)
	}

	next := m.cart.Clone()
	next[idx].Amount = in.Amount

	if err := m.commit(ctx, next); err != nil {
		return m.fail(ctx, op, in.ProductID, OutcomeFailed, notify.UpdateFailed(in.ProductID), err)
	}
	return m.applied(op, in.ProductID)
}

// effects are the deliveries a mutation leaves for run to make once writeMu
// is released.
type effects struct {
	op        string
	productID int64
	updated   bool // a snapshot was written; publish cart
	cart      domain.Cart
	notice    *notify.Notification
}

// run executes fn under writeMu, then publishes its cart event and raises its
// notification without holding the lock. Events of concurrent mutations are
// therefore published in best-effort order; each carries the full cart it
// describes.
func (m *CartManager) run(ctx context.Context, fn func() (Result, effects)) Result {
	res, fx := func() (Result, effects) {
		m.writeMu.Lock()
		defer m.writeMu.Unlock()
		return fn()
	}()
	m.deliver(ctx, fx)
	return res
}

func (m *CartManager) deliver(ctx context.Context, fx effects) {
	log := logger.WithContext(ctx, m.logger).With(
		slog.String("operation", fx.op),
		slog.Int64("product_id", fx.productID),
	)
	if fx.updated && m.events != nil {
		if err := m.events.PublishCartUpdated(ctx, fx.op, fx.productID, fx.cart); err != nil {
			log.Warn("cart event not published", slog.String("error", err.Error()))
		}
	}
	if fx.notice != nil {
		if err := m.notifier.Notify(ctx, *fx.notice); err != nil {
			log.Warn("notification not delivered", slog.String("error", err.Error()))
		}
	}
}

// commit writes next to the snapshot and, only if that succeeds, makes it
// the current cart. Callers hold writeMu.
func (m *CartManager) commit(ctx context.Context, next domain.Cart) error {
	if err := m.repo.Save(ctx, m.key, next); err != nil {
		return err
	}

	m.stateMu.Lock()
	m.cart = next
	m.stateMu.Unlock()
	return nil
}

func (m *CartManager) applied(op string, productID int64) (Result, effects) {
	cartOperationsTotal.WithLabelValues(op, string(OutcomeApplied)).Inc()
	cart := m.Cart()
	return Result{Outcome: OutcomeApplied, Cart: cart}, effects{
		op:        op,
		productID: productID,
		updated:   true,
		cart:      cart.Clone(),
	}
}

// fail logs the refusal, leaves n to be raised and returns the unchanged
// cart. cause is nil for expected refusals such as stock exceeded.
func (m *CartManager) fail(ctx context.Context, op string, productID int64, outcome Outcome, n notify.Notification, cause error) (Result, effects) {
	cartOperationsTotal.WithLabelValues(op, string(outcome)).Inc()

	log := logger.WithContext(ctx, m.logger).With(
		slog.String("operation", op),
		slog.Int64("product_id", productID),
		slog.String("outcome", string(outcome)),
	)
	if cause != nil {
		log.Error("cart operation failed", slog.String("error", cause.Error()))
	} else {
		log.Info("cart operation refused")
	}

	return Result{Outcome: outcome, Notification: &n, Cart: m.Cart()}, effects{
		op:        op,
		productID: productID,
		notice:    &n,
	}
}
