package adminapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Prefix is prepended to every API route, e.g. "/api". Empty mounts the
	// routes at the root.
	Prefix string
	// Metrics, when set, instruments every route and is served at /metrics.
	Metrics *Metrics
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}

// SetupMuxRoutes registers the API routes on muxRouter.
func SetupMuxRoutes(muxRouter *mux.Router, handler *Handler) {
	muxRouter.HandleFunc("/health", handler.HandleHealth).Methods(http.MethodGet)

	muxRouter.HandleFunc("/tables/{table}", handler.HandleList).Methods(http.MethodGet)
	muxRouter.HandleFunc("/tables/{table}", handler.HandleCreate).Methods(http.MethodPost)
	muxRouter.HandleFunc("/tables/{table}/{key}", handler.HandleGet).Methods(http.MethodGet)
	muxRouter.HandleFunc("/tables/{table}/{key}", handler.HandleUpdate).Methods(http.MethodPut)
	muxRouter.HandleFunc("/tables/{table}/{key}", handler.HandleDelete).Methods(http.MethodDelete)

	muxRouter.HandleFunc("/forms/product-with-components", handler.HandleProductForm).Methods(http.MethodPost)
	muxRouter.HandleFunc("/reports/{report}", handler.HandleReport).Methods(http.MethodGet)
	muxRouter.HandleFunc("/lookups/{entity}", handler.HandleLookup).Methods(http.MethodGet)
}

// NewRouter builds the complete HTTP handler: API routes under the prefix,
// the metrics endpoint, request ids, access logging, panic recovery and CORS.
func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	root := mux.NewRouter()

	if opts.Metrics != nil {
		root.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := root
	if prefix := strings.TrimRight(opts.Prefix, "/"); prefix != "" {
		api = root.PathPrefix(prefix).Subrouter()
	}
	SetupMuxRoutes(api, handler)

	root.Use(requestID, instrument(opts.Metrics), handler.recovery)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)(root)
}
