package obs

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

type annotationsKey struct{}
type routePatternKey struct{}

// annotations collects request attributes discovered by inner middleware,
// such as the resolved tenant, so outer middleware can log them after the
// handler returns.
type annotations struct {
	mu     sync.Mutex
	fields map[string]string
}

// withAnnotations makes sure r carries an annotation holder.
func withAnnotations(r *http.Request) (*http.Request, *annotations) {
	if a, ok := r.Context().Value(annotationsKey{}).(*annotations); ok {
		return r, a
	}
	a := &annotations{fields: map[string]string{}}
	return r.WithContext(context.WithValue(r.Context(), annotationsKey{}, a)), a
}

// Annotate records key=value on the current request. It is a no-op outside
// an instrumented request.
func Annotate(ctx context.Context, key, value string) {
	a, ok := ctx.Value(annotationsKey{}).(*annotations)
	if !ok || value == "" {
		return
	}
	a.mu.Lock()
	a.fields[key] = value
	a.mu.Unlock()
}

func (a *annotations) snapshot() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.fields))
	for k, v := range a.fields {
		out[k] = v
	}
	return out
}

// WithRoutePattern pins pattern as the route seen by RouteOf.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns a pinned route pattern, if any.
func RoutePatternFromContext(ctx context.Context) string {
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}

// RouteOf reports the matched chi pattern. chi fills the pattern while
// routing, so middleware mounted above the router must call it after the
// handler returns.
func RouteOf(r *http.Request) string {
	if p := RoutePatternFromContext(r.Context()); p != "" {
		return p
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
