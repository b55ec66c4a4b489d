package storefront

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ChangeFunc is invoked after the basket changed.
type ChangeFunc func(ctx context.Context) error

// Notifier fans basket change events out to subscribers. Delivery order is
// unspecified.
type Notifier struct {
	subs *xsync.MapOf[*Subscription, ChangeFunc]
}

// NewNotifier returns a Notifier without subscribers.
func NewNotifier() *Notifier {
	return &Notifier{subs: xsync.NewMapOf[*Subscription, ChangeFunc]()}
}

// Subscription is the handle of a registered callback. Subscriptions are
// compared by identity: registering the same callback twice yields two
// subscriptions.
type Subscription struct {
	owner *Notifier
}

// Close unsubscribes. Closing more than once is a no-op.
func (s *Subscription) Close() error {
	s.owner.Unsubscribe(s)
	return nil
}

// Subscribe registers cb.
func (n *Notifier) Subscribe(cb ChangeFunc) *Subscription {
	s := &Subscription{owner: n}
	n.subs.Store(s, cb)
	return s
}

// Unsubscribe removes s. Unknown or already removed subscriptions are ignored.
func (n *Notifier) Unsubscribe(s *Subscription) {
	n.subs.Delete(s)
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	return n.subs.Size()
}

// NotifyAll invokes every registered callback concurrently and waits for all
// of them. A failing or panicking callback does not prevent delivery to the
// others; all failures are returned combined.
func (n *Notifier) NotifyAll(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	n.subs.Range(func(_ *Subscription, cb ChangeFunc) bool {
		g.Go(func() error {
			if err := invoke(ctx, cb); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
		return true
	})
	_ = g.Wait()
	return errs
}

func invoke(ctx context.Context, cb ChangeFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("change callback panicked: %v", rec)
		}
	}()
	return cb(ctx)
}
