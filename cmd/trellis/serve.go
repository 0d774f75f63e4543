package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/trellis/internal/config"
	"github.com/vango-dev/trellis/internal/examples"
	"github.com/vango-dev/trellis/pkg/app"
	"github.com/vango-dev/trellis/pkg/bridge"
	"github.com/vango-dev/trellis/pkg/metrics"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		addr    string
		example string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an example to browsers",
		Long: `Serve an example over HTTP.

Every browser tab that opens the page gets its own instance of the
example. DOM updates travel over a WebSocket; Prometheus metrics are
exposed at /metrics.

Examples:
  trellis serve
  trellis serve --example todo --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if example != "" {
				cfg.Serve.Example = example
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config, :3000)")
	cmd.Flags().StringVarP(&example, "example", "e", "", fmt.Sprintf("Example to mount: %s (default from config, counter)", exampleNames()))

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	srv, err := newServer(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	srv.base = gctx

	g.Go(func() error {
		success(cmd.OutOrStdout(), "Serving %s on http://localhost%s", srv.example.Name, cfg.Serve.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		info(cmd.OutOrStdout(), "Shutting down...")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// server hosts one app per WebSocket connection.
type server struct {
	cfg      *config.Config
	example  examples.Example
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// base is the lifetime of the server. Connections outlive their
	// upgrade request.
	base context.Context
}

func newServer(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*server, error) {
	ex, err := examples.Lookup(cfg.Serve.Example)
	if err != nil {
		return nil, err
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &server{
		cfg:      cfg,
		example:  ex,
		logger:   logger,
		registry: reg,
		metrics:  metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace), metrics.WithRegistry(reg)),
		base:     context.Background(),
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/trellis.js", s.handleScript)
	r.Get("/ws", s.handleSocket)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} · trellis</title>
<script src="/trellis.js" defer></script>
</head>
<body></body>
</html>
`))

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.example); err != nil {
		s.logger.Error("index render failed", "error", err)
	}
}

func (s *server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write(bridge.ClientScript())
}

// handleSocket mounts a fresh instance of the example on the connection
// and runs it until the browser goes away.
func (s *server) handleSocket(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Accept(w, r,
		bridge.WithLogger(s.logger),
		bridge.WithRoot(s.cfg.Root),
	)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	logger := s.logger.With("session_id", b.ID(), "example", s.example.Name)
	opts := append(app.FromConfig(s.cfg),
		app.WithLogger(logger),
		app.WithMetrics(s.metrics),
	)
	a := app.New(s.example.Factory, b, opts...)
	logger.Info("session started", "remote_addr", r.RemoteAddr, "request_id", middleware.GetReqID(r.Context()))

	go func() {
		ctx, cancel := context.WithCancel(s.base)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer cancel()
			return b.Serve(gctx)
		})
		g.Go(func() error {
			defer a.Close()
			return a.Run(gctx)
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("session ended with error", "error", err)
		}
		logger.Info("session ended", "components", a.Registry().Len())
	}()
}

// exampleNames lists the examples for help output.
func exampleNames() string {
	var names []string
	for _, ex := range examples.All() {
		names = append(names, ex.Name)
	}
	return strings.Join(names, ", ")
}
