// Package http implements all the HTTP handlers exported by this application.
// It also serves the API documentation (Swagger).
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/prashantkr001/items-crud/internal/api"
	"github.com/prashantkr001/items-crud/internal/item"
	"github.com/prashantkr001/items-crud/internal/pkg/apm"
	"github.com/prashantkr001/items-crud/internal/pkg/logger"
)

const msgInvalidInput = "Invalid input"

type Config struct {
	Host              string
	Port              int
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	CORSOrigins       []string
	EnableAccesslog   bool
}

type HTTP struct {
	locker *sync.Mutex
	server *http.Server
	// apis has all the APIs, and respective HTTP handlers will call using this
	apis              *api.API
	shutdownInitiated bool
	serverStartTime   time.Time
}

func (ht *HTTP) Start() error {
	ht.serverStartTime = time.Now()
	err := ht.server.ListenAndServe()
	if err != nil {
		return errors.Wrap(err, "failed to start http server")
	}

	return nil
}

func (ht *HTTP) Shutdown(ctx context.Context) error {
	ht.locker.Lock()
	defer ht.locker.Unlock()

	ht.shutdownInitiated = true
	err := ht.server.Shutdown(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to shutdown http server")
	}

	return nil
}

func (ht *HTTP) StartedAt() time.Time {
	return ht.serverStartTime
}

// Handler is the root handler with all the routes & middleware
func (ht *HTTP) Handler() http.Handler {
	return ht.server.Handler
}

type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type HandlerFuncErr func(w http.ResponseWriter, req *http.Request) error

// ErrorHandler converts the error returned by fn into a JSON response, with the status
// code based on the type of error.
func (ht *HTTP) ErrorHandler(fn HandlerFuncErr) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status, message, _ := errors.HTTPStatusCodeMessage(err)
		resp := errorResponse{Message: message}

		ierr := item.AsInputError(err)
		switch {
		case ierr != nil:
			status = http.StatusBadRequest
			resp = errorResponse{Message: msgInvalidInput, Errors: ierr.Fields}
		case status >= http.StatusInternalServerError:
			// internal details are only logged, never sent to the client
			resp.Message = http.StatusText(status)
			logger.ErrorCtx(r.Context(), errors.Stacktrace(err))
		}

		_ = writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) error {
	jResp, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal response")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(jResp)
	if err != nil {
		return errors.Wrap(err, "failed to write response")
	}

	return nil
}

func chiURIPattern(router *chi.Mux, r *http.Request) string {
	cctx := chi.NewRouteContext()
	uriPattern := "unmatched-path"
	if router.Match(cctx, r.Method, r.URL.Path) {
		uriPattern = cctx.RoutePattern()
	}
	return uriPattern
}

// accessLog logs every request, colored by status, for easier reading in a terminal
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)

		code := wrapped.Status()
		status := logger.ByStatus(code, fmt.Sprintf("[http]::%d", code))

		logger.InfoCtx(
			r.Context(),
			fmt.Sprintf("%s %s %s %s", status, r.Method, logger.Cyan(r.URL.Path), time.Since(start)),
		)
	})
}

func newChiRouter(cfg *Config) *chi.Mux {
	router := chi.NewRouter()
	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	router.Use(
		middleware.Recoverer,
		middleware.RequestID,
		cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
		}),
		func(h http.Handler) http.Handler {
			wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				l := new(otelhttp.Labeler)
				l.Add(attribute.KeyValue{
					Key:   semconv.HTTPRouteKey,
					Value: attribute.StringValue(chiURIPattern(router, r)),
				})

				h.ServeHTTP(
					w,
					r.WithContext(otelhttp.ContextWithLabeler(r.Context(), l)),
				)
			})
			return wrapped
		},
		apm.NewHTTPMiddleware(&apm.HTTPOpts{
			OTEL: []otelhttp.Option{
				otelhttp.WithFilter(func(req *http.Request) bool {
					return !strings.HasPrefix(req.URL.Path, "/-/") &&
						!strings.HasPrefix(req.URL.Path, "/swagger")
				}),
				otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
					return chiURIPattern(router, req)
				}),
			},
		},
		),
	)

	if cfg.EnableAccesslog {
		router.Use(accessLog)
	}

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusNotFound, errorResponse{Message: http.StatusText(http.StatusNotFound)})
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(
			w,
			http.StatusMethodNotAllowed,
			errorResponse{Message: http.StatusText(http.StatusMethodNotAllowed)},
		)
	})

	return router
}

func New(apis *api.API, cfg *Config) *HTTP {
	ht := &HTTP{
		locker: &sync.Mutex{},
		apis:   apis,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}

	router := newChiRouter(cfg)
	ht.docRoutes(router)
	ht.itemRoutes(router)
	ht.server.Handler = router

	return ht
}
