package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/itemdb/internal/config"
	"github.com/udisondev/itemdb/internal/data"
	"github.com/udisondev/itemdb/internal/db"
	"github.com/udisondev/itemdb/internal/gameserver"
	"github.com/udisondev/itemdb/internal/pkgcache"
	"github.com/udisondev/itemdb/internal/script"
)

const (
	DefaultConfigPath = "config/itemdb.yaml"

	reloadDebounce  = 500 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := config.ConfigPath(DefaultConfigPath)
	cfg, err := config.LoadItemDB(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("itemdb starting", "config", cfgPath, "log_level", cfg.LogLevel, "db_path", cfg.DBPath)

	reg := data.NewRegistry(script.NewTextEngine(), optionsFromConfig(cfg))
	src := sourcesFromConfig(cfg)

	var interreg *db.InterRegRepository
	if cfg.UseSQLItemDB {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(ctx, database.Pool()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		src.Rows = db.NewItemDBRepository(database.Pool(), cfg.SQLItemDBTables...)
		interreg = db.NewInterRegRepository(database.Pool())
		reg.SetUniqueIDSource(interreg)
	}
	reg.SetSources(src)

	if cfg.Cache.Enabled {
		reg.SetPackageCache(pkgcache.New(cfg.Cache.Dir, cfg.Cache.Compress))
	}

	clients := gameserver.NewClientManager()
	reg.SetSessions(clients)
	reg.SetAnnouncer(gameserver.NewPackageAnnouncer(clients, reg))

	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("loading item db: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	reloads := make(chan string, 1)
	requestReload := func(reason string) {
		select {
		case reloads <- reason:
		default:
			// reload already pending
		}
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsHandler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("starting metrics server", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				requestReload("SIGHUP")
			}
		}
	})

	if cfg.WatchSources {
		paths := watchedPaths(cfg)
		g.Go(func() error {
			slog.Info("watching item db sources", "files", len(paths), "debounce", reloadDebounce)
			if err := watchSources(gctx, paths, reloadDebounce, requestReload); err != nil {
				return fmt.Errorf("source watcher: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return reloadLoop(gctx, reg, reloads)
	})

	err = g.Wait()

	if interreg != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		last := reg.UniqueIDs().Last()
		if serr := interreg.SaveUniqueID(saveCtx, last); serr != nil {
			slog.Error("saving unique item id", "error", serr)
		} else {
			slog.Info("unique item id saved", "value", last)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("itemdb stopped")
	return nil
}

// reloadLoop serializes reload requests; a failed reload keeps the current epoch.
func reloadLoop(ctx context.Context, r data.ItemDB, reloads <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-reloads:
			slog.Info("reload requested", "reason", reason)
			if err := r.Reload(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("reload failed, keeping current item db", "error", err)
			}
		}
	}
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
