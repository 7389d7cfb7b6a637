package relay

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Router is a small mux with a middleware chain and per-path method
// dispatch, so one path can carry several methods.
type Router struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      map[string]map[string]http.Handler
}

func NewRouter() *Router {
	return &Router{
		mux:    http.NewServeMux(),
		routes: map[string]map[string]http.Handler{},
	}
}

// Use adds middleware, applied in the order it was added. Call before Handle;
// handlers registered earlier keep the chain they were wrapped with.
func (r *Router) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the given HTTP method and path pattern.
// OPTIONS requests run the middleware chain so CORS preflight can answer.
func (r *Router) Handle(method, path string, handler http.Handler) {
	byMethod, ok := r.routes[path]
	if !ok {
		byMethod = map[string]http.Handler{}
		r.routes[path] = byMethod
		r.mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.dispatch(byMethod, w, req)
		}))
	}
	byMethod[strings.ToUpper(method)] = r.apply(handler)
}

func (r *Router) dispatch(byMethod map[string]http.Handler, w http.ResponseWriter, req *http.Request) {
	if handler, ok := byMethod[strings.ToUpper(req.Method)]; ok {
		handler.ServeHTTP(w, req)
		return
	}
	if req.Method == http.MethodOptions {
		r.apply(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(w, req)
		return
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// apply wraps a handler with the middleware chain, last added wrapping first.
func (r *Router) apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

// RequestLogging logs each request with its duration.
func RequestLogging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			logger.Debug("http request",
				"method", req.Method,
				"path", req.URL.Path,
				"duration", time.Since(start),
			)
		})
	}
}

// CORS allows any origin; the relay is consumed by cast receivers.
func CORS() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
