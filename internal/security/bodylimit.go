package security

import (
	"net/http"

	"github.com/noah-isme/backend-resto/internal/common"
)

// BodyLimit caps request bodies at Max bytes. A declared Content-Length over
// the cap is refused up front; chunked bodies are cut off by
// http.MaxBytesReader and surface as 413 from common.DecodeAndValidate.
type BodyLimit struct {
	Max int64
}

func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
