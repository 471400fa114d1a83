// Package httpapi serves the phone status over HTTP.
package httpapi

//go:generate errtrace -w .

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"braces.dev/errtrace"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ghettovoice/doorphone/linphone"
	"github.com/ghettovoice/doorphone/log"
)

// Phone is the status surface of [linphone.Phone].
type Phone interface {
	State() linphone.State
	Lifecycle() linphone.Lifecycle
}

// Status is the body of GET /state and GET /healthz.
type Status struct {
	Lifecycle linphone.Lifecycle `json:"lifecycle"`
	State     linphone.State     `json:"state"`
}

// NewHandler builds the router:
//
//	GET /healthz  200 while the client is running, 503 otherwise
//	GET /state    current state snapshot
//	GET /metrics  metrics, if a metrics handler is given
func NewHandler(phone Phone, metrics http.Handler, logger *slog.Logger) http.Handler {
	logger = log.Or(logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		st := status(phone)
		code := http.StatusOK
		if st.Lifecycle != linphone.LifecycleRunning {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, logger, code, st)
	})
	r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, logger, http.StatusOK, status(phone))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return r
}

func status(phone Phone) Status {
	return Status{Lifecycle: phone.Lifecycle(), State: phone.State()}
}

func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to write response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.LogAttrs(r.Context(), slog.LevelDebug, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Server runs the status API.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.Or(logger),
	}
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errtrace.Wrap(err)
	}
	return errtrace.Wrap(s.Serve(ctx, ln))
}

// Serve serves on ln until ctx is done, then shuts the server down gracefully.
// It returns nil after a shutdown caused by ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.LogAttrs(ctx, slog.LevelInfo, "http api listening", slog.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()

	select {
	case err := <-errc:
		return errtrace.Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errtrace.Wrap(err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errtrace.Wrap(err)
	}
	return nil
}
