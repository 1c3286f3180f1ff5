package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/douglasgreyling/ring"
	"github.com/douglasgreyling/ring/fasthost"
	"github.com/douglasgreyling/ring/internal/config"
	"github.com/douglasgreyling/ring/internal/demo"
	"github.com/douglasgreyling/ring/internal/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Server.Address = addr
		}
		log, err := logger.New(cfg.Env, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides server.address")
}

func newPipeline(cfg *config.Config, log *zap.Logger) *ring.Pipeline {
	opts := []ring.Option{
		ring.WithLogger(log),
		ring.WithMetrics(prometheus.DefaultRegisterer),
		ring.WithExposeErrors(!cfg.IsProduction() || cfg.Pipeline.ExposeErrors),
	}
	if !cfg.Pipeline.TrackLifetime() {
		opts = append(opts, ring.WithoutLifetime())
	}
	return ring.New(demo.Handler(cfg, log), opts...)
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	p := newPipeline(cfg, log)
	log.Info("starting server",
		zap.String("env", cfg.Env),
		zap.String("engine", cfg.Server.Engine),
		zap.String("addr", cfg.Server.Address),
		zap.Int("mounts", len(cfg.Pipeline.Mounts)))

	if cfg.Server.Engine == "fasthttp" {
		return serveFast(ctx, cfg, p)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", p)
	srv := &http.Server{
		Addr:           cfg.Server.Address,
		Handler:        mux,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes.Int(),
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(sctx)
}

func serveFast(ctx context.Context, cfg *config.Config, p *ring.Pipeline) error {
	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	pipeline := fasthost.Handler(p, nil)
	srv := &fasthttp.Server{
		Handler: func(rc *fasthttp.RequestCtx) {
			if string(rc.Path()) == "/metrics" {
				metrics(rc)
				return
			}
			pipeline(rc)
		},
		ReadBufferSize: cfg.Server.MaxHeaderBytes.Int(),
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe(cfg.Server.Address) }()
	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}
	return srv.Shutdown()
}
