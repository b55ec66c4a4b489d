package webapp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/xenking/eshop-basket/internal/storefront"
)

// session hosts the basket state of one signed-in user.
type session struct {
	// mu serializes mutations issued by the same user.
	mu      sync.Mutex
	state   *storefront.State
	sub     *storefront.Subscription
	version atomic.Uint64
}

func newSession(state *storefront.State) *session {
	s := &session{state: state}
	s.sub = state.NotifyOnChange(func(context.Context) error {
		s.version.Add(1)
		return nil
	})
	return s
}

func (s *session) close() {
	_ = s.sub.Close()
}

// Sessions keeps one storefront.State per user id. Idle sessions expire after
// the configured TTL; every access extends it.
type Sessions struct {
	cache    *ttlcache.Cache[string, *session]
	newState func() *storefront.State
}

// NewSessions creates a registry whose sessions are built by newState.
func NewSessions(ttl time.Duration, newState func() *storefront.State) *Sessions {
	cache := ttlcache.New[string, *session](
		ttlcache.WithTTL[string, *session](ttl),
	)
	cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, *session]) {
		item.Value().close()
	})
	return &Sessions{cache: cache, newState: newState}
}

// Run expires idle sessions until ctx is done. Remaining sessions are closed
// on return.
func (s *Sessions) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.cache.Stop()
	}()
	s.cache.Start()
	s.cache.DeleteAll()
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	return s.cache.Len()
}

func (s *Sessions) get(userID string) *session {
	if item := s.cache.Get(userID); item != nil {
		return item.Value()
	}
	created := newSession(s.newState())
	item, found := s.cache.GetOrSet(userID, created)
	if found {
		created.close()
	}
	return item.Value()
}

// Evict drops the session of userID, for example at sign-out.
func (s *Sessions) Evict(userID string) {
	s.cache.Delete(userID)
}
