package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func watchCmd(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch <mapping-file>...",
		Short: "Revalidate mapping files whenever they change",
		Long: `Watch mapping files and revalidate them on every change. Results are
logged rather than printed; each validation run carries a unique run_id
for log correlation. The process keeps running until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := metricsAddr
			if addr == "" {
				addr = a.cfg.Watch.MetricsAddr
			}
			if addr != "" {
				go a.serveMetrics(ctx, addr)
			}
			return a.watch(ctx, args)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "Listen address for the Prometheus endpoint (e.g. :9090)")
	return cmd
}

// watch runs the revalidation loop. Directories are watched rather than the
// files themselves so that editors that replace files (rename-over-write)
// do not silently drop the watch.
func (a *app) watch(ctx context.Context, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]struct{}, len(files))
	dirs := make(map[string]struct{})
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", file, err)
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	// Initial pass so the log reflects the state at startup.
	for abs := range targets {
		a.revalidate(abs)
	}

	a.logger.Info("Watching for changes",
		slog.Int("files", len(targets)),
		slog.Duration("debounce", a.cfg.Watch.Debounce))

	// Debounced dispatch: bursts of events (editor save, rsync) collapse
	// into one revalidation per file.
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := targets[abs]; !watched {
				continue
			}
			pending[abs] = struct{}{}
			timer.Reset(a.cfg.Watch.Debounce)

		case <-timer.C:
			for abs := range pending {
				delete(pending, abs)
				a.revalidate(abs)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("Watcher error", slog.String("error", err.Error()))
		}
	}
}

// revalidate runs one validation pass over a single file and logs the
// outcome under a fresh run id.
func (a *app) revalidate(path string) {
	logger := a.logger.With(
		slog.String("run_id", uuid.New().String()),
		slog.String("file", path))

	start := time.Now()
	m, err := a.validator.ValidateFile(path)
	if err != nil {
		logger.Error("Mapping is invalid", slog.String("error", err.Error()))
		return
	}
	logger.Info("Mapping is valid",
		slog.String("target_ids", m.TargetIDS),
		slog.Int("signals", m.NumSignals()),
		slog.Duration("elapsed", time.Since(start)))
}

func (a *app) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("Serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("Metrics server failed", slog.String("error", err.Error()))
	}
}
