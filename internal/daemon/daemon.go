package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timecard-io/timecard/internal/api"
	"github.com/timecard-io/timecard/internal/app/access"
	"github.com/timecard-io/timecard/internal/app/aggregate"
	"github.com/timecard-io/timecard/internal/app/ledger"
	"github.com/timecard-io/timecard/internal/app/records"
	_ "github.com/timecard-io/timecard/internal/infra/metrics" // Register Prometheus metrics
	"github.com/timecard-io/timecard/internal/infra/sqlite"
)

// Daemon is the core timecard runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Guard  *access.Guard
	Ledger *ledger.Ledger
	Agg    *aggregate.Service
	Facade *records.Facade
	Server *api.Server
	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = timecardHome()
	}

	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	guard := access.NewGuard(db)
	led := ledger.New(db, guard)
	agg := aggregate.NewService(db)
	facade := records.NewFacade(db, guard, led, agg)

	srv := api.NewServer(facade)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config: cfg,
		DB:     db,
		Guard:  guard,
		Ledger: led,
		Agg:    agg,
		Facade: facade,
		Server: srv,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[daemon] shutdown error: %v", err)
		}
		_ = d.DB.Close()
	}()

	fmt.Printf("timecard serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
