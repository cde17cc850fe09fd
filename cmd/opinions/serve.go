package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/opinions/internal/config"
	"github.com/vango-dev/opinions/internal/errors"
	"github.com/vango-dev/opinions/pkg/server"
	"github.com/vango-dev/opinions/pkg/store"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		addr        string
		backend     string
		metrics     bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the opinions server",
		Long: `Run the HTTP and websocket server.

The store backend comes from the config file or OPINIONS_STORE:
  memory   nothing survives a restart
  sqlite   a local database file (OPINIONS_SQLITE_PATH)
  s3       a JSON snapshot in a bucket (OPINIONS_S3_*)

Examples:
  opinions serve
  opinions serve --addr localhost:9000 --store sqlite
  opinions serve --metrics --metrics-addr :9100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if backend != "" {
				cfg.Store.Backend = backend
			}
			if metrics || metricsAddr != "" {
				cfg.Metrics = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, newLogger(cmd, cfg), metricsAddr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringVar(&backend, "store", "", "Store backend: memory, sqlite or s3")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Serve Prometheus metrics on /metrics")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Also serve /metrics on a separate address")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, metricsAddr string) error {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	srvCfg := server.DefaultServerConfig()
	srvCfg.Address = cfg.Addr

	opts := []server.Option{server.WithLogger(logger)}
	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, server.WithMetrics(reg))
	}
	srv := server.New(st, srvCfg, opts...)

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.Run(gctx)
	})
	if reg != nil && metricsAddr != "" {
		grp.Go(func() error {
			return serveMetrics(gctx, metricsAddr, reg, logger)
		})
	}

	logger.Info("opinions serving", "addr", cfg.Addr, "store", cfg.Store.Backend, "metrics", cfg.Metrics)
	if err := grp.Wait(); err != nil {
		return errors.New("E106").Wrap(err)
	}
	return nil
}

// serveMetrics runs a metrics-only listener until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "address", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		st, err := store.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, errors.New("E200").Wrap(err).
				WithDetail("Could not open " + cfg.Store.SQLitePath)
		}
		logger.Debug("sqlite store opened", "path", cfg.Store.SQLitePath)
		return st, nil

	case config.BackendS3:
		s3cfg := cfg.Store.S3
		client := store.NewS3Client(store.S3ClientConfig{
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			UsePathStyle:    s3cfg.UsePathStyle,
		})
		st, err := store.OpenS3(ctx, client, s3cfg.Bucket, s3cfg.Key)
		if err != nil {
			return nil, errors.New("E200").Wrap(err).
				WithDetail("Could not load s3://" + s3cfg.Bucket + "/" + s3cfg.Key)
		}
		logger.Debug("s3 store opened", "bucket", s3cfg.Bucket, "key", s3cfg.Key)
		return st, nil

	default:
		return store.NewMemoryStore(), nil
	}
}
