// Package storefront keeps the signed-in shopper's view of their basket.
//
// State is the per-session orchestrator: it joins the raw basket held by the
// basket service with catalog metadata, memoizes the enriched view until the
// next mutation, and notifies subscribers after every change.
package storefront

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/eshop-basket/internal/domain/basket"
	"github.com/xenking/eshop-basket/internal/domain/catalog"
	"github.com/xenking/eshop-basket/internal/domain/order"
	"github.com/xenking/eshop-basket/internal/identity"
)

var (
	// ErrNotAuthenticated is returned by mutations issued without a signed-in
	// user.
	ErrNotAuthenticated = errors.New("user is not logged in")
	// ErrNoBuyerID is returned by checkout when the caller has no user id.
	ErrNoBuyerID = errors.New("user does not have a buyer id")
	// ErrNoUserName is returned by checkout when the caller has no display name.
	ErrNoUserName = errors.New("user does not have a user name")
	// ErrUnknownProduct is returned by Add for a product id the catalog does
	// not know. Nothing is written in that case.
	ErrUnknownProduct = errors.New("product is not in the catalog")
	// ErrNoCheckoutInfo is returned by Checkout when info is nil.
	ErrNoCheckoutInfo = errors.New("checkout info is required")
)

// BasketClient is the remote basket service as seen by the storefront. The
// caller identity travels in the context.
type BasketClient interface {
	GetBasket(ctx context.Context) ([]basket.Item, error)
	UpdateBasket(ctx context.Context, items []basket.Item) error
	DeleteBasket(ctx context.Context) error
}

// Item is an enriched basket line. ID is regenerated on every fetch and must
// not be used to correlate lines across refreshes; use ProductID instead.
type Item struct {
	ID          string
	ProductID   int
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Total returns UnitPrice multiplied by Quantity.
func (i Item) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	now            func() time.Time
}

// Option configures State.
type Option func(*options)

// WithTracerProvider sets the tracer provider used for basket spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for basket metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// State is the basket view of one shopper session. All methods are safe for
// concurrent use, but a State must not be shared between users: the memoized
// view is not keyed by identity.
type State struct {
	basket  BasketClient
	catalog catalog.Lookup
	orders  order.Submitter
	changes *Notifier
	inst    *instruments
	now     func() time.Time

	flight singleflight.Group

	mu         sync.Mutex
	cached     []Item
	valid      bool
	generation uint64
}

// New creates the basket state of a session.
func New(b BasketClient, c catalog.Lookup, o order.Submitter, opts ...Option) *State {
	cfg := options{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &State{
		basket:  b,
		catalog: c,
		orders:  o,
		changes: NewNotifier(),
		inst:    newInstruments(cfg.tracerProvider, cfg.meterProvider),
		now:     cfg.now,
	}
}

// NotifyOnChange subscribes cb to basket changes made through this State.
func (s *State) NotifyOnChange(cb ChangeFunc) *Subscription {
	return s.changes.Subscribe(cb)
}

// Subscribers returns the number of active change subscriptions.
func (s *State) Subscribers() int {
	return s.changes.Len()
}

// GetItems returns the enriched basket of the caller. Anonymous callers get
// an empty basket without any remote call. Repeated calls share one fetch
// until the next mutation.
func (s *State) GetItems(ctx context.Context) ([]Item, error) {
	if !identity.FromContext(ctx).Authenticated() {
		return []Item{}, nil
	}
	return s.fetchItems(ctx)
}

// Add puts one unit of productID into the basket: an existing line is
// incremented, otherwise a new line with quantity 1 is appended. The product
// must resolve through the catalog before anything is written.
func (s *State) Add(ctx context.Context, productID int) error {
	user := identity.FromContext(ctx)
	if !user.Authenticated() || user.Name == "" {
		return ErrNotAuthenticated
	}

	return s.observe(ctx, "add_item", func(ctx context.Context, span trace.Span) error {
		lg := zctx.From(ctx).With(
			zap.String("user", identity.MaskName(user.Name)),
			zap.String("buyer", identity.MaskID(user.ID)),
			zap.Int("product_id", productID),
		)
		span.SetAttributes(
			attribute.String("user.id", identity.MaskID(user.ID)),
			attribute.Int("product.id", productID),
		)
		s.inst.count(ctx, attribute.String("event", "start"))
		lg.Debug("Adding item to basket")

		products, err := s.catalog.ResolveMany(ctx, []int{productID})
		if err != nil {
			return errors.Wrap(err, "resolve catalog item")
		}
		if _, ok := products[productID]; !ok {
			return errors.Wrapf(ErrUnknownProduct, "product %d", productID)
		}

		current, err := s.fetchItems(ctx)
		if err != nil {
			return err
		}

		items := quantities(current)
		idx := slices.IndexFunc(items, func(it basket.Item) bool { return it.ProductID == productID })
		if idx >= 0 {
			items[idx].Quantity++
			span.SetAttributes(attribute.Int("item.quantity", items[idx].Quantity))
		} else {
			items = append(items, basket.Item{ProductID: productID, Quantity: 1})
			s.inst.count(ctx, attribute.String("event", "new_item"))
			span.SetAttributes(attribute.Bool("item.new", true))
		}

		s.invalidate()
		if err := s.basket.UpdateBasket(ctx, items); err != nil {
			return err
		}

		s.inst.count(ctx,
			attribute.String("operation", "add"),
			attribute.Int("product_id", productID),
		)
		lg.Info("Item added to basket")
		s.notifyChanged(ctx)
		return nil
	})
}

// SetQuantity replaces the quantity of the line holding productID. A quantity
// of zero or less removes the line. Setting a product that is not in the
// basket does nothing: no remote write happens and nobody is notified.
func (s *State) SetQuantity(ctx context.Context, productID, quantity int) error {
	return s.observe(ctx, "set_quantity", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(
			attribute.Int("product.id", productID),
			attribute.Int("item.quantity", quantity),
		)

		current, err := s.fetchItems(ctx)
		if err != nil {
			return err
		}

		items := quantities(current)
		idx := slices.IndexFunc(items, func(it basket.Item) bool { return it.ProductID == productID })
		if idx < 0 {
			return nil
		}
		if quantity > 0 {
			items[idx].Quantity = quantity
		} else {
			items = slices.Delete(items, idx, idx+1)
		}

		s.invalidate()
		if err := s.basket.UpdateBasket(ctx, items); err != nil {
			return err
		}
		s.notifyChanged(ctx)
		return nil
	})
}

// DeleteBasket removes the whole basket of the caller.
func (s *State) DeleteBasket(ctx context.Context) error {
	if !identity.FromContext(ctx).Authenticated() {
		return ErrNotAuthenticated
	}
	return s.observe(ctx, "delete", func(ctx context.Context, _ trace.Span) error {
		s.invalidate()
		if err := s.basket.DeleteBasket(ctx); err != nil {
			return err
		}
		s.notifyChanged(ctx)
		return nil
	})
}

// fetchItems returns the memoized view, fetching it when absent. Concurrent
// callers of the same generation share a single fetch. A fetch started before
// an invalidation never populates the cache; failures are not cached.
//
// The shared fetch is detached from the cancellation of the caller that
// started it; each caller stops waiting when its own ctx is done.
func (s *State) fetchItems(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	if s.valid {
		items := slices.Clone(s.cached)
		s.mu.Unlock()
		return items, nil
	}
	gen := s.generation
	s.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		items, err := s.fetchCore(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generation == gen {
			s.cached = items
			s.valid = true
		}
		s.mu.Unlock()
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]Item)), nil
	}
}

func (s *State) fetchCore(ctx context.Context) ([]Item, error) {
	lines, err := s.basket.GetBasket(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}
	if len(lines) == 0 {
		return []Item{}, nil
	}

	products, err := s.catalog.ResolveMany(ctx, basket.ProductIDs(lines))
	if err != nil {
		return nil, errors.Wrap(err, "resolve catalog items")
	}

	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, &catalog.MissingProductError{ProductID: line.ProductID}
		}
		items = append(items, Item{
			ID:          uuid.NewString(),
			ProductID:   line.ProductID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    line.Quantity,
		})
	}
	return items, nil
}

func (s *State) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.valid = false
	s.generation++
	s.mu.Unlock()
}

func (s *State) notifyChanged(ctx context.Context) {
	if err := s.changes.NotifyAll(ctx); err != nil {
		zctx.From(ctx).Warn("Basket change subscriber failed", zap.Error(err))
	}
}

func quantities(items []Item) []basket.Item {
	out := make([]basket.Item, 0, len(items))
	for _, it := range items {
		out = append(out, basket.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
