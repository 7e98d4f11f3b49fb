// Package tracking streams order status changes to customers over websockets.
// Status changes are published on Redis so that any API replica can serve
// a subscriber regardless of which process moved the order.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/obs"
)

const channelPrefix = "track:"

// Channel is the Redis channel carrying updates for one order.
func Channel(tenantID, code string) string {
	return channelPrefix + tenantID + ":" + strings.ToUpper(code)
}

// Publisher sends order updates to the tracking channel.
type Publisher struct {
	R *redis.Client
}

// Publish implements order.Tracker.
func (p Publisher) Publish(ctx context.Context, tenantID string, u events.OrderStatus) error {
	if p.R == nil {
		return errors.New("tracking: redis client not configured")
	}
	if tenantID == "" || u.Code == "" {
		return errors.New("tracking: tenant and order code are required")
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return p.R.Publish(ctx, Channel(tenantID, u.Code), raw).Err()
}

// Subscription receives updates for one order until closed.
type Subscription struct {
	C   chan events.OrderStatus
	key string
	hub *Hub
}

// Close detaches the subscription from the hub.
func (s *Subscription) Close() { s.hub.remove(s) }

// Hub fans Redis updates out to local subscribers.
type Hub struct {
	R   *redis.Client
	Log zerolog.Logger

	mu    sync.Mutex
	subs  map[string]map[*Subscription]struct{}
	ready chan struct{}
	once  sync.Once
}

// NewHub returns a hub reading from r.
func NewHub(r *redis.Client, log zerolog.Logger) *Hub {
	return &Hub{
		R:     r,
		Log:   log.With().Str("component", "tracking").Logger(),
		subs:  make(map[string]map[*Subscription]struct{}),
		ready: make(chan struct{}),
	}
}

// Ready is closed once the Redis subscription is live.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Subscribe registers interest in an order.
func (h *Hub) Subscribe(tenantID, code string) *Subscription {
	s := &Subscription{C: make(chan events.OrderStatus, 8), key: Channel(tenantID, code), hub: h}
	h.mu.Lock()
	set, ok := h.subs[s.key]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[s.key] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	obs.AddGauge(obs.TrackingSubscribers, 1)
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.key]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.key)
	}
	obs.AddGauge(obs.TrackingSubscribers, -1)
}

// Subscribers returns the number of local subscribers for an order.
func (h *Hub) Subscribers(tenantID, code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[Channel(tenantID, code)])
}

// deliver never blocks; a subscriber that is not keeping up misses updates
// and picks up the latest status on its next one.
func (h *Hub) deliver(key string, u events.OrderStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[key] {
		select {
		case s.C <- u:
		default:
			h.Log.Debug().Str("channel", key).Msg("tracking subscriber lagging, update dropped")
		}
	}
}

// Run relays Redis messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	if h.R == nil {
		return errors.New("tracking: redis client not configured")
	}
	ps := h.R.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	h.once.Do(func() { close(h.ready) })
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var u events.OrderStatus
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
				h.Log.Warn().Err(err).Str("channel", msg.Channel).Msg("decode tracking update")
				continue
			}
			h.deliver(msg.Channel, u)
		}
	}
}
