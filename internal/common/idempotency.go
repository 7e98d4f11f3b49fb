package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	idemPending     = "pending"
	idemMaxReplayed = 64 << 10
)

// Idem makes writes carrying an Idempotency-Key safe to retry. The first
// request runs; a repeat while it runs gets 409, a repeat after it succeeded
// gets the stored answer with Idempotent-Replayed: true. Failures release the
// key. Keys are scoped to host, tenant header, caller and route.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

type storedAnswer struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func idemKey(r *http.Request, clientKey string) string {
	user, _ := UserID(r.Context())
	sum := sha256.Sum256([]byte(strings.Join([]string{
		r.Host, r.Header.Get("X-Tenant-ID"), user, r.Method, r.URL.Path, clientKey,
	}, "|")))
	return "idem:" + hex.EncodeToString(sum[:])
}

// capture tees the answer so it can be stored.
type capture struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *capture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *capture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	if c.body.Len() <= idemMaxReplayed {
		c.body.Write(b)
	}
	return c.ResponseWriter.Write(b)
}

func (i Idem) Middleware(next http.Handler) http.Handler {
	ttl := i.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if clientKey == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := idemKey(r, clientKey)
		claimed, err := i.R.SetNX(r.Context(), key, idemPending, ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !claimed {
			i.replay(w, r, key)
			return
		}

		rec := &capture{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		bg := context.WithoutCancel(r.Context())
		if rec.status == 0 || rec.status >= 400 {
			_ = i.R.Del(bg, key).Err()
			return
		}
		ans := storedAnswer{Status: rec.status, ContentType: rec.Header().Get("Content-Type")}
		// Oversized bodies replay as status only.
		if rec.body.Len() <= idemMaxReplayed {
			ans.Body = rec.body.Bytes()
		}
		stored, _ := json.Marshal(ans)
		_ = i.R.Set(bg, key, stored, redis.KeepTTL).Err()
	})
}

func (i Idem) replay(w http.ResponseWriter, r *http.Request, key string) {
	raw, err := i.R.Get(r.Context(), key).Result()
	var ans storedAnswer
	if err != nil || raw == idemPending || json.Unmarshal([]byte(raw), &ans) != nil || ans.Status == 0 {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "a request with this idempotency key is in progress", nil)
		return
	}
	if ans.ContentType != "" {
		w.Header().Set("Content-Type", ans.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(ans.Status)
	_, _ = w.Write(ans.Body)
}
