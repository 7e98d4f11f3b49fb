package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/ratelimit"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

const tenantID = "7d3c1c8e-2f5b-4d8e-9a10-0c6a2b7f1e11"

type stubOrders struct {
	status string
}

func (s stubOrders) Lookup(_ context.Context, code, contact string) (order.Summary, error) {
	if contact != "0812" {
		return order.Summary{}, common.NotFound("order not found")
	}
	return order.Summary{Code: strings.ToUpper(code), Status: s.status}, nil
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func startHub(t *testing.T, rdb *redis.Client) *Hub {
	t.Helper()
	hub := NewHub(rdb, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx) }()
	select {
	case <-hub.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not subscribe")
	}
	return hub
}

func serve(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(tenant.With(req.Context(), tenantID)))
		})
	})
	r.Get("/orders/track/{code}/ws", h.Stream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestPublisherReachesHubSubscribers(t *testing.T) {
	rdb := newRedis(t)
	hub := startHub(t, rdb)
	sub := hub.Subscribe(tenantID, "r-abc123")
	defer sub.Close()
	other := hub.Subscribe("another-tenant", "R-ABC123")
	defer other.Close()

	pub := Publisher{R: rdb}
	require.NoError(t, pub.Publish(context.Background(), tenantID, events.OrderStatus{Code: "R-ABC123", From: "pending", To: "accepted"}))

	select {
	case u := <-sub.C:
		require.Equal(t, "accepted", u.To)
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}
	select {
	case <-other.C:
		t.Fatal("update leaked across tenants")
	case <-time.After(50 * time.Millisecond):
	}

	require.Error(t, pub.Publish(context.Background(), "", events.OrderStatus{Code: "R-ABC123"}))
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	sub := hub.Subscribe(tenantID, "R-1")
	require.Equal(t, 1, hub.Subscribers(tenantID, "R-1"))
	sub.Close()
	sub.Close()
	require.Equal(t, 0, hub.Subscribers(tenantID, "R-1"))
}

func TestStreamSendsSnapshotThenUpdates(t *testing.T) {
	rdb := newRedis(t)
	hub := startHub(t, rdb)
	srv := serve(t, &Handler{Orders: stubOrders{status: "pending"}, Hub: hub})

	conn, _, err := dial(t, srv, "/orders/track/r-xyz789/ws?contact=0812")
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "snapshot", msg.Type)
	require.Equal(t, "pending", msg.Status)

	require.Eventually(t, func() bool { return hub.Subscribers(tenantID, "R-XYZ789") == 1 }, time.Second, 10*time.Millisecond)
	pub := Publisher{R: rdb}
	require.NoError(t, pub.Publish(context.Background(), tenantID, events.OrderStatus{Code: "R-XYZ789", From: "pending", To: "accepted", Email: "x@example.com"}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "status", msg.Type)
	require.Equal(t, "accepted", msg.Status)
	require.Equal(t, "pending", msg.From)

	require.NoError(t, pub.Publish(context.Background(), tenantID, events.OrderStatus{Code: "R-XYZ789", From: "ready", To: "completed"}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "completed", msg.Status)

	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Eventually(t, func() bool { return hub.Subscribers(tenantID, "R-XYZ789") == 0 }, time.Second, 10*time.Millisecond)
}

func TestStreamRejectsUnknownContactAndLimitsIPs(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	srv := serve(t, &Handler{Orders: stubOrders{status: "pending"}, Hub: hub, Limiter: ratelimit.NewLocal(60, 1)})

	_, resp, err := dial(t, srv, "/orders/track/r-xyz789/ws?contact=0000")
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = dial(t, srv, "/orders/track/r-xyz789/ws?contact=0812")
	require.Error(t, err)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestStreamClosesForFinishedOrders(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	srv := serve(t, &Handler{Orders: stubOrders{status: "completed"}, Hub: hub})

	conn, _, err := dial(t, srv, "/orders/track/r-done01/ws?contact=0812")
	require.NoError(t, err)
	defer conn.Close()
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "completed", msg.Status)
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
