package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pizzeria-api/internal/api"
	"github.com/xenking/pizzeria-api/internal/domain/identity"
	"github.com/xenking/pizzeria-api/internal/domain/order"
	"github.com/xenking/pizzeria-api/internal/domain/token"
	"github.com/xenking/pizzeria-api/internal/gateway"
	"github.com/xenking/pizzeria-api/internal/storage/records"
	"github.com/xenking/pizzeria-api/internal/store"
	"github.com/xenking/pizzeria-api/pkg/health"
	"github.com/xenking/pizzeria-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Driver),
	)

	// Record store. Both drivers expose the same Store interface plus Ping.
	var (
		recordStore store.Store
		ping        func(ctx context.Context) error
	)
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := store.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := store.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		pg := store.NewPostgresStore(pool)
		recordStore, ping = pg, pg.Ping
	default:
		fs, err := store.NewFileStore(ctx, cfg.Store.Dir)
		if err != nil {
			return errors.Wrap(err, "open file store")
		}
		recordStore, ping = fs, fs.Ping
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddCheck("store", 5*time.Second, ping)

	// Repositories.
	userRepo := records.NewUserRepository(recordStore)
	tokenRepo := records.NewTokenRepository(recordStore)
	menuRepo := records.NewMenuRepository(recordStore)
	orderRepo := records.NewOrderRepository(recordStore)

	// Domain services.
	hasher := identity.NewHasher([]byte(cfg.HashingSecret))
	identitySvc := identity.NewService(userRepo, hasher)
	tokenSvc := token.NewService(tokenRepo, userRepo, hasher, cfg.Token.Lifetime)

	payment, notifier := buildGateways(ctx, cfg)
	orderSvc := order.NewService(userRepo, menuRepo, orderRepo, tokenSvc, payment, notifier, order.Config{
		MinimumCharge:   cfg.Order.MinimumCharge,
		AcceptedSources: cfg.Order.AcceptedSources,
		AppName:         cfg.Order.AppName,
	})

	// Routes: health endpoints + API on one server.
	handler := api.NewHandler(identitySvc, tokenSvc, orderSvc, menuRepo)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", handler.Router())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowedOrigins: cfg.CORS.Origins,
				MaxAge:         86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("pizzeria-api"),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildGateways selects payment and notification backends from configuration.
// Missing credentials fall back to logging no-ops so the server stays usable
// in development.
func buildGateways(ctx context.Context, cfg *Config) (order.PaymentGateway, order.NotificationGateway) {
	lg := zctx.From(ctx)

	var payment order.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		payment = gateway.NewStripeGateway(gateway.StripeConfig{
			SecretKey: cfg.Stripe.SecretKey,
			Currency:  cfg.Stripe.Currency,
		})
	} else {
		lg.Warn("Stripe secret key not set, charges will be logged only")
		payment = gateway.NewNopPayment(lg)
	}

	var notifier order.NotificationGateway
	switch {
	case cfg.AMQP.URL != "":
		n, err := gateway.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			lg.Error("AMQP connect failed, receipts will be logged only", zap.Error(err))
			notifier = gateway.NewNopNotifier(lg)
			break
		}
		go func() {
			<-ctx.Done()
			_ = n.Close()
		}()
		notifier = n
	case cfg.Mailgun.APIKey != "":
		notifier = gateway.NewMailgunGateway(gateway.MailgunConfig{
			Domain: cfg.Mailgun.Domain,
			APIKey: cfg.Mailgun.APIKey,
			Sender: cfg.Mailgun.Sender,
		})
	default:
		lg.Warn("Mailgun API key not set, receipts will be logged only")
		notifier = gateway.NewNopNotifier(lg)
	}

	return payment, notifier
}
