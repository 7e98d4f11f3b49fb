package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
)

// HTTPRecorder audits admin writes once the handler has answered.
type HTTPRecorder struct {
	Service   *Service
	OnError   func(error)
	ActorFunc func(*http.Request) Actor
}

// Mutations records every request except reads.
func (r HTTPRecorder) Mutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, req)
			return
		}
		if r.Service == nil || !r.Service.Enabled {
			next.ServeHTTP(w, req)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := obs.RouteOf(req)
		resource, action := Describe(req.Method, route)
		m := Mutation{
			Actor:      r.actor(req),
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID(req),
			Method:     req.Method,
			Path:       req.URL.Path,
			Route:      route,
			Status:     status,
			IP:         common.ClientIP(req),
			UserAgent:  req.UserAgent(),
			RequestID:  middleware.GetReqID(req.Context()),
			Query:      req.URL.RawQuery,
		}
		if err := r.Service.Record(req.Context(), m); err != nil && r.OnError != nil {
			r.OnError(err)
		}
	})
}

func (r HTTPRecorder) actor(req *http.Request) Actor {
	if r.ActorFunc != nil {
		return r.ActorFunc(req)
	}
	if id, ok := common.UserID(req.Context()); ok {
		return Actor{Kind: ActorKindUser, UserID: id}
	}
	return Actor{Kind: ActorKindAnonymous}
}

// resourceID is the last URL parameter of the matched route, which is the
// id of the record being changed.
func resourceID(req *http.Request) string {
	rc := chi.RouteContext(req.Context())
	if rc == nil || len(rc.URLParams.Values) == 0 {
		return ""
	}
	return rc.URLParams.Values[len(rc.URLParams.Values)-1]
}
