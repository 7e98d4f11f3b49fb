package tracking

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/order"
	"github.com/noah-isme/backend-resto/internal/ratelimit"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Lookup authorises a tracking request.
type Lookup interface {
	Lookup(ctx context.Context, code, contact string) (order.Summary, error)
}

// Message is what subscribers receive. It never carries contact details.
type Message struct {
	Type   string    `json:"type"`
	Code   string    `json:"code"`
	Status string    `json:"status"`
	From   string    `json:"from,omitempty"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// Handler upgrades tracking requests to websockets.
type Handler struct {
	Orders  Lookup
	Hub     *Hub
	Limiter *ratelimit.Local
	// AllowedOrigins restricts browser origins; empty allows any.
	AllowedOrigins []string
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Stream handles GET /api/v1/orders/track/{code}/ws?contact=.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Orders == nil || h.Hub == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tracking not configured", nil)
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow(common.ClientIP(r)) {
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many tracking connections", nil)
		return
	}
	ctx := r.Context()
	summary, err := h.Orders.Lookup(ctx, chi.URLParam(r, "code"), r.URL.Query().Get("contact"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	tid, _ := tenant.From(ctx)

	sub := h.Hub.Subscribe(tid, summary.Code)
	defer sub.Close()

	up := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := h.Hub.Log.With().Str("order", summary.Code).Logger()
	snapshot := Message{Type: "snapshot", Code: summary.Code, Status: summary.Status, At: time.Now().UTC()}
	if err := write(conn, snapshot); err != nil {
		return
	}
	if order.Terminal(dbgen.OrderStatus(summary.Status)) {
		closeNormal(conn, "order "+summary.Status)
		return
	}

	closed := make(chan struct{})
	go readPump(conn, closed)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case u := <-sub.C:
			msg := Message{Type: "status", Code: u.Code, Status: u.To, From: u.From, Note: u.Note, At: u.At}
			if err := write(conn, msg); err != nil {
				log.Debug().Err(err).Msg("tracking write failed")
				return
			}
			if order.Terminal(dbgen.OrderStatus(u.To)) {
				closeNormal(conn, "order "+u.To)
				return
			}
		}
	}
}

func write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func closeNormal(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), time.Now().Add(writeWait))
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
