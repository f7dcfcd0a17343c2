// Package router exposes the configured filters over HTTP: it lists
// resources, describes their filters, explains the SQL and aggregation
// pipelines built from a query string and runs them when a database is
// attached.
package router

import (
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/conduit-lang/filterkit/internal/engine"
	"github.com/conduit-lang/filterkit/internal/web/cache"
	"github.com/conduit-lang/filterkit/internal/web/middleware"
)

// Options configures a Router. DB and Mongo are optional; the routes that
// run queries answer 503 without them. Cache, when set, stores the responses
// of the routes that only render queries.
type Options struct {
	Engine *engine.Engine
	DB     *sql.DB
	Mongo  *mongo.Database
	Logger *zap.Logger
	Cache  cache.Cache

	CacheTTL       time.Duration
	RequestTimeout time.Duration
	DefaultLimit   int
	MaxLimit       int
}

// Router manages HTTP routing using chi framework
type Router struct {
	mux    chi.Router
	engine *engine.Engine
	db     *sql.DB
	mongo  *mongo.Database
	logger *zap.Logger

	defaultLimit int
	maxLimit     int
}

// RouteInfo provides metadata about a route for introspection
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// NewRouter creates a new Router instance
func NewRouter(opts Options) (*Router, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("router engine cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rt := &Router{
		mux:          chi.NewRouter(),
		engine:       opts.Engine,
		db:           opts.DB,
		mongo:        opts.Mongo,
		logger:       logger,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
	}
	if rt.defaultLimit <= 0 {
		rt.defaultLimit = 30
	}
	if rt.maxLimit < rt.defaultLimit {
		rt.maxLimit = rt.defaultLimit
	}

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Recovery(logger),
		middleware.Deadline(opts.RequestTimeout),
	)
	rt.mux.Use(func(next http.Handler) http.Handler {
		return chain.Then(next)
	})

	rt.mux.NotFound(notFound)
	rt.mux.MethodNotAllowed(methodNotAllowed)

	rt.mux.Get("/health", rt.health)
	rt.mux.Route("/resources", func(r chi.Router) {
		r.Get("/", rt.listResources)
		r.Route("/{resource}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.Cache != nil {
					r.Use(cache.Middleware(opts.Cache, opts.CacheTTL, logger))
				}
				r.Get("/filters", rt.describe)
				r.Get("/properties", rt.properties)
				r.Get("/explain", rt.explain)
				r.Get("/pipeline", rt.pipeline)
			})
			r.Get("/items", rt.items)
			r.Get("/documents", rt.documents)
		})
	})

	return rt, nil
}

// ServeHTTP implements http.Handler interface
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt.mux.ServeHTTP(w, req)
}

// Routes returns every registered route sorted by pattern then method
func (rt *Router) Routes() []RouteInfo {
	routes := make([]RouteInfo, 0)
	chi.Walk(rt.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, RouteInfo{Method: method, Pattern: route})
		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}
