package webapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/eshop-basket/internal/domain/basket"
	"github.com/xenking/eshop-basket/internal/identity"
	"github.com/xenking/eshop-basket/internal/storefront"
)

func newTestSessions(ttl time.Duration) *Sessions {
	return NewSessions(ttl, func() *storefront.State {
		return storefront.New(nil, staticCatalog{}, &recordingOrders{})
	})
}

func TestSessions_OnePerUser(t *testing.T) {
	s := newTestSessions(time.Minute)

	a := s.get("U1")
	b := s.get("U1")
	c := s.get("U2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, a.state.Subscribers())
}

func TestSessions_EvictUnsubscribes(t *testing.T) {
	s := newTestSessions(time.Minute)

	sess := s.get("U1")
	require.Equal(t, 1, sess.state.Subscribers())

	s.Evict("U1")
	assert.Zero(t, sess.state.Subscribers())
	assert.Nil(t, s.cache.Get("U1"))
	assert.NotSame(t, sess, s.get("U1"))
}

func TestSessions_ExpireIdle(t *testing.T) {
	s := newTestSessions(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	sess := s.get("U1")
	assert.Eventually(t, func() bool { return sess.state.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	s.get("U2")
	cancel()
	<-done
	assert.Zero(t, s.Len())
}

type nopBasket struct{}

func (nopBasket) GetBasket(context.Context) ([]basket.Item, error) { return nil, nil }
func (nopBasket) UpdateBasket(context.Context, []basket.Item) error { return nil }
func (nopBasket) DeleteBasket(context.Context) error                { return nil }

func TestSession_VersionTracksChanges(t *testing.T) {
	s := NewSessions(time.Minute, func() *storefront.State {
		return storefront.New(nopBasket{}, staticCatalog{}, &recordingOrders{})
	})
	sess := s.get("U1")
	ctx := identity.WithUser(context.Background(), identity.User{ID: "U1", Name: "alice"})

	require.NoError(t, sess.state.DeleteBasket(ctx))
	require.NoError(t, sess.state.DeleteBasket(ctx))
	assert.Equal(t, uint64(2), sess.version.Load())
}
