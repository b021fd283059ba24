// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digital-checkout/internal/config"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	leadSinks "digital-checkout/internal/infra/adapters/leads"
	payAdapters "digital-checkout/internal/infra/adapters/payment"
	"digital-checkout/internal/infra/api"
	pg "digital-checkout/internal/infra/db/postgres"
	"digital-checkout/internal/infra/leads"
	"digital-checkout/internal/infra/logging"
	"digital-checkout/internal/infra/metrics"
	red "digital-checkout/internal/infra/redis"
	"digital-checkout/internal/infra/sched"
	"digital-checkout/internal/infra/web"
	"digital-checkout/internal/infra/worker"
	"digital-checkout/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, no rate limiting)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	sessionStore := red.NewSessionStore(redisClient, cfg.Redis.SessionTTL)
	locker := red.NewLocker(redisClient)
	var rateLimiter web.RateLimiter
	if !cfg.Runtime.Dev {
		rateLimiter = red.NewRateLimiter(redisClient)
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	txRepo := pg.NewTransactionRepo(pool)
	verRepo := pg.NewVerificationRepo(pool)
	customerRepo := pg.NewCustomerRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	leadRepo := pg.NewLeadRepo(pool)
	settingsRepo := pg.NewSettingsRepo(pool)
	catalogRepo := pg.NewCatalogRepo(pool)

	// ---- Lead recording ----
	wpool := worker.NewPool(cfg.Leads.Workers, logger)
	wpool.Start(ctx)
	defer wpool.Stop()

	var leadSink adapter.LeadSink
	if cfg.Leads.CRMEndpoint != "" {
		leadSink, err = leadSinks.NewHTTPSink(cfg.Leads.CRMEndpoint, cfg.Leads.CRMAPIKey)
		if err != nil {
			log.Fatalf("lead sink: %v", err)
		}
		logger.Info().Str("endpoint", cfg.Leads.CRMEndpoint).Msg("leads: forwarding to CRM")
	} else {
		leadSink = leadSinks.NewRepoSink(leadRepo)
		logger.Info().Msg("leads: storing locally")
	}
	recorder := leads.NewRecorder(leadSink, wpool, logger)

	// ---- Use cases ----
	provisioner := usecase.NewProvisioningUseCase(customerRepo, subRepo, catalogRepo, tm, logger)

	// ---- Payment gateways ----
	gateways := map[model.ProviderKind]adapter.PaymentGateway{}
	statusSources := map[string]adapter.StatusSource{}
	if cfg.Runtime.Dev && cfg.Payment.Stripe.SecretKey == "" {
		noop := payAdapters.NewNoopPaymentGateway(3)
		gateways[model.ProviderKindCard] = noop
		statusSources[noop.Name()] = noop
		logger.Warn().Msg("payments: card gateway is the in-memory noop")
	} else {
		stripe, err := payAdapters.NewStripeGateway(
			cfg.Payment.Stripe.SecretKey,
			cfg.Payment.Stripe.SuccessURL,
			cfg.Payment.Stripe.CancelURL,
		)
		if err != nil {
			log.Fatalf("stripe gateway: %v", err)
		}
		if cfg.Payment.Stripe.BaseURL != "" {
			stripe.SetBaseURL(cfg.Payment.Stripe.BaseURL)
		}
		gateways[model.ProviderKindCard] = stripe
		statusSources[stripe.Name()] = stripe
	}
	if cfg.Payment.BTCPay.APIKey != "" {
		btcpay, err := payAdapters.NewBTCPayGateway(
			cfg.Payment.BTCPay.BaseURL,
			cfg.Payment.BTCPay.APIKey,
			cfg.Payment.BTCPay.StoreID,
		)
		if err != nil {
			log.Fatalf("btcpay gateway: %v", err)
		}
		gateways[model.ProviderKindCrypto] = btcpay
		statusSources[btcpay.Name()] = btcpay
	} else {
		logger.Info().Msg("payments: btcpay not configured; crypto checkout disabled")
	}
	manualGW := payAdapters.NewManualGateway(settingsRepo, provisioner, logger)
	gateways[model.ProviderKindManual] = manualGW

	routing := payAdapters.NewRoutingStatusSource(txRepo, statusSources)
	poller := sched.NewStatusPoller(routing, txRepo, cfg.Payment.PollInterval, cfg.Payment.PollCeiling, logger)
	defer poller.Stop()

	checkoutUC := usecase.NewCheckoutUseCase(
		catalogRepo, txRepo, verRepo, sessionStore,
		gateways, recorder, poller, provisioner, logger,
	)
	verificationUC := usecase.NewVerificationUseCase(verRepo, provisioner, tm, locker, logger)
	adminUC := usecase.NewAdminUseCase(customerRepo, subRepo, settingsRepo, tm, logger)
	reconcileUC := usecase.NewReconcileUseCase(txRepo, routing, provisioner, logger)

	// ---- Reconciliation sweep: settles transactions whose poll loop is gone
	// (ceiling breach or restart) so a late confirmation still provisions.
	sweep := sched.NewReconcileWorker(reconcileUC, txRepo, time.Minute, 10*time.Minute, logger)
	go sweep.Start(ctx)

	// ---- Public checkout API ----
	publicSrv := web.NewServer(checkoutUC, txRepo, reconcileUC, leadSink, rateLimiter, logger)
	public := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: publicSrv.Router(),
	}
	go func() {
		logger.Info().Str("addr", public.Addr).Msg("public api listening")
		if err := public.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public server error")
		}
	}()

	// ---- Admin API ----
	jwtSecret := cfg.Admin.JWTSecret
	if jwtSecret == "" {
		logger.Warn().Msg("admin.jwt_secret not set; falling back to dev secret (INSECURE)")
		jwtSecret = "dev-only-admin-secret"
	}
	auth := api.NewAuthManager(jwtSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	adminSrv := api.NewServer(verificationUC, adminUC, manualGW, auth, cfg.Admin.APIKey, logger)
	adminMux := http.NewServeMux()
	adminSrv.Register(adminMux)
	admin := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTP.AdminPort),
		Handler: api.Chain(adminMux,
			api.TraceID(logger),
			api.RequestLog(logger),
			api.Recover(logger),
			api.Timeout(30*time.Second),
		),
	}
	go func() {
		logger.Info().Str("addr", admin.Addr).Msg("admin api listening")
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := public.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("public server shutdown")
	}
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin server shutdown")
	}
	cancel()
}
