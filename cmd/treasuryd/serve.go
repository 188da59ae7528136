package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/treasury/internal/asset"
	"github.com/mmynk/treasury/internal/auth"
	"github.com/mmynk/treasury/internal/ledger"
	"github.com/mmynk/treasury/internal/metrics"
	"github.com/mmynk/treasury/internal/middleware"
	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/service"
	"github.com/mmynk/treasury/internal/storage"
	"github.com/mmynk/treasury/internal/storage/memory"
	"github.com/mmynk/treasury/internal/storage/sqlite"
	"github.com/mmynk/treasury/pkg/api/treasuryv1/treasuryv1connect"
)

// ServeCmd runs the Connect server.
type ServeCmd struct {
	Listen string `help:"HTTP listen address." default:":8080" env:"TREASURY_LISTEN"`

	StoreType string `help:"Store type (sqlite or memory)." default:"sqlite" env:"TREASURY_STORE_TYPE" enum:"sqlite,memory"`
	DBPath    string `help:"SQLite database path." default:"./data/treasury.db" env:"DB_PATH"`

	Asset  string   `help:"Symbol of the in-process asset treasuries custody." default:"USDC" env:"TREASURY_ASSET"`
	Faucet []string `help:"address=amount grants minted at startup, pre-approved for deposits (development)." env:"TREASURY_FAUCET"`

	VerifyOnStart   bool          `help:"Audit every treasury's event log before serving." default:"true" negatable:"" env:"TREASURY_VERIFY_ON_START"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"10s" env:"TREASURY_SHUTDOWN_TIMEOUT"`
}

// grant is one parsed --faucet entry.
type grant struct {
	to     models.Address
	amount *big.Int
}

func parseFaucet(entries []string) ([]grant, error) {
	grants := make([]grant, 0, len(entries))
	for _, entry := range entries {
		addr, amount, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("faucet entry %q: want address=amount", entry)
		}
		to, err := models.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("faucet entry %q: %w", entry, err)
		}
		v, err := models.ParseAmount(amount)
		if err != nil || v.Sign() <= 0 {
			return nil, fmt.Errorf("faucet entry %q: amount must be a positive integer", entry)
		}
		grants = append(grants, grant{to: to, amount: v})
	}
	return grants, nil
}

func (c *ServeCmd) openStore() (storage.Store, error) {
	switch c.StoreType {
	case "memory":
		return memory.New(), nil
	default:
		store, err := sqlite.New(c.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// app is everything the server needs, built from flags.
type app struct {
	ledger  *ledger.Ledger
	book    *asset.Book
	handler http.Handler
	store   storage.Store
}

func (c *ServeCmd) build(ctx context.Context, g *Globals, reg *prometheus.Registry) (*app, error) {
	grants, err := parseFaucet(c.Faucet)
	if err != nil {
		return nil, err
	}

	store, err := c.openStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	book := asset.NewBook(c.Asset)
	l := ledger.New(store,
		ledger.WithAsset(c.Asset, book),
		ledger.WithLogger(g.Logger),
		ledger.WithMetrics(metrics.New(reg)),
	)

	// The in-process asset does not persist, so custody accounts are
	// restored from the stored balances.
	treasuries, err := l.Treasuries(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	for _, t := range treasuries {
		if t.Asset == c.Asset && t.Balance.Sign() > 0 {
			book.Mint(t.Account, t.Balance)
		}
	}
	for _, gr := range grants {
		book.Mint(gr.to, gr.amount)
		book.ApproveAll(gr.to)
		g.Logger.Info("Faucet grant", "address", gr.to.Hex(), "amount", gr.amount.String(), "asset", c.Asset)
	}

	jwtManager := auth.NewJWTManager(g.JWTSecret, 0)
	interceptors := connect.WithInterceptors(
		middleware.Authenticate(jwtManager, service.RestrictedProcedures...),
		middleware.LoggingInterceptor(g.Logger),
	)

	mux := http.NewServeMux()
	path, handler := treasuryv1connect.NewTreasuryServiceHandler(service.NewTreasuryService(l), interceptors)
	mux.Handle(path, handler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &app{
		ledger:  l,
		book:    book,
		store:   store,
		handler: h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
	}, nil
}

// verifyAll audits every treasury, a few at a time, and fails if any log
// does not match its stored state.
func verifyAll(ctx context.Context, l *ledger.Ledger, logger *slog.Logger) error {
	treasuries, err := l.Treasuries(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, t := range treasuries {
		g.Go(func() error {
			report, err := l.Audit(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("failed to audit treasury %s: %w", t.ID, err)
			}
			if !report.OK() {
				return fmt.Errorf("treasury %s failed audit: %s", t.ID, strings.Join(report.Problems, "; "))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Treasuries verified", "count", len(treasuries))
	return nil
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	if len(g.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 bytes (--jwt-secret or JWT_SECRET)")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := c.build(ctx, g, reg)
	if err != nil {
		return err
	}
	defer a.store.Close()
	g.Logger.Info("Storage initialized", "type", c.StoreType, "database", c.DBPath)

	if c.VerifyOnStart {
		if err := verifyAll(ctx, a.ledger, g.Logger); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           a.handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		g.Logger.Info("Connect server starting", "address", c.Listen, "version", g.Version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		g.Logger.Info("Shutting down", "timeout", c.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
