// Package bridge implements app.Runner for the billing bridge process.
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apphttp "github.com/chainsafe/billing-bridge/pkg/app/http"
	"github.com/chainsafe/billing-bridge/pkg/auth"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	"github.com/chainsafe/billing-bridge/pkg/config"
	"github.com/chainsafe/billing-bridge/pkg/login"
	"github.com/chainsafe/billing-bridge/pkg/pgutil"
	"github.com/chainsafe/billing-bridge/pkg/runlog"
	"github.com/chainsafe/billing-bridge/pkg/syncer"
	syncservice "github.com/chainsafe/billing-bridge/pkg/syncer/service"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

const defaultRequestTimeout = 60 * time.Second

// Server holds cfg to init the bridge process.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new bridge server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("bridge config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting billing bridge",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := s.openDB(logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	api, err := whmcs.New(cfg.WHMCS, logger)
	if err != nil {
		return fmt.Errorf("create billing API client: %w", err)
	}
	if !api.IsConfigured() {
		logger.Warn("Billing API is not configured; sync endpoints will report errors")
	} else {
		logger.Info("Billing API configured", zap.String("endpoint", api.Endpoint()))
	}

	store := bridgestore.NewStore(db)
	tracker := runlog.New(store, logger)
	engine := syncer.New(api, store, tracker, bridgestore.NewLocker(db, logger), syncer.SettingsFromConfig(cfg.Sync), logger)

	syncSvc := syncservice.NewLog(syncservice.NewService(engine, api, store, cfg.Sync.RunTimeout, logger), logger)
	authenticator := login.New(api, store, engine, login.SettingsFromConfig(cfg.Sync), logger)

	router := s.setupRouter(syncSvc, authenticator, logger)

	scheduler := s.startScheduler(engine, logger)
	// Stopped explicitly when the errgroup unwinds; the defer covers early returns.
	defer scheduler()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apphttp.ServeAndWait(gctx, router, logger, &cfg.Server)
	})
	g.Go(func() error {
		<-gctx.Done()
		scheduler()
		return nil
	})

	return g.Wait()
}

func (s *Server) openDB(logger *zap.Logger) (*bun.DB, error) {
	db, err := pgutil.ConnectDB(&s.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("host", s.cfg.Database.Host),
		zap.String("database", s.cfg.Database.Database),
	)
	return db, nil
}

// startScheduler starts periodic syncing when an interval is configured and
// returns its stopper.
func (s *Server) startScheduler(runner syncer.Runner, logger *zap.Logger) func() {
	interval := s.cfg.Sync.Interval
	if interval <= 0 {
		logger.Info("Periodic sync disabled")
		return func() {}
	}

	scheduler := syncer.NewScheduler(runner, s.cfg.Sync.RunTimeout, logger)
	logger.Info("Starting periodic sync", zap.Duration("interval", interval))
	scheduler.Start(interval)
	return scheduler.Stop
}

func (s *Server) setupRouter(
	syncSvc syncservice.Service,
	loginSvc login.Service,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestTimeout(defaultRequestTimeout, "/sync/users", "/sync/products"))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	login.RegisterRoutes(r, loginSvc, logger)

	validator := auth.NewJWTValidator(s.cfg.Auth)
	if !validator.IsConfigured() {
		logger.Warn("Operator auth disabled: no jwt_secret configured")
	}
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(validator, logger))
		syncservice.RegisterRoutes(r, syncSvc, logger)
	})

	return r
}

// requestTimeout applies middleware.Timeout to every request except POSTs to
// the exempt paths. Those start full sync passes bounded by the run timeout.
func requestTimeout(d time.Duration, exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timed := middleware.Timeout(d)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && slices.Contains(exempt, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			timed.ServeHTTP(w, r)
		})
	}
}
