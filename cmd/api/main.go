package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sos-expat/backend/internal/config"
	"sos-expat/backend/internal/domain/backups"
	"sos-expat/backend/internal/domain/legal"
	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/reviews"
	"sos-expat/backend/internal/domain/stats"
	"sos-expat/backend/internal/domain/user"
	"sos-expat/backend/internal/firebase"
	"sos-expat/backend/internal/handlers"
	apihttp "sos-expat/backend/internal/http"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("firebase init failed: %v", err)
	}
	defer clients.Close()

	defaults, err := pricing.LoadDefaults(cfg.PricingDefaultsFile)
	if err != nil {
		log.Printf("pricing defaults: %v (using built-in defaults)", err)
	}

	signer := firebase.NewURLSigner(clients.IAM, cfg.SignedURLServiceAccountEmail)
	userRepo := user.NewRepo(clients.Firestore)

	// Services
	var pusher notifications.Pusher
	if clients.Messaging != nil {
		pusher = clients.Messaging
	}
	notificationsSvc := notifications.NewService(clients.Firestore, pusher, userRepo)
	pricingSvc := pricing.NewService(clients.Firestore, defaults)
	providersSvc := providers.NewService(clients.Firestore, clients.Auth)
	providersSvc.SetNotifier(notificationsSvc)
	backupsSvc := backups.NewService(clients.Firestore, clients.Storage, cfg.BackupBucket, signer)
	legalSvc := legal.NewService(clients.Firestore)

	// Payments are optional; without a Stripe key the payment routes and
	// the webhook are not mounted and reviews cannot be created.
	var (
		paymentsSvc *payments.Service
		checker     reviews.PaymentChecker
		summarizer  stats.PaymentSummarizer
	)
	if cfg.StripeEnabled() {
		paymentsSvc = payments.NewService(clients.Firestore, payments.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		}, pricingSvc, providersSvc)
		paymentsSvc.SetNotifier(notificationsSvc)
		checker = paymentsSvc
		summarizer = paymentsSvc
		log.Println("Stripe payments enabled")
	} else {
		log.Println("STRIPE_SECRET_KEY not set, payments disabled")
	}

	reviewsSvc := reviews.NewService(clients.Firestore, checker)
	reviewsSvc.SetNotifier(notificationsSvc)
	statsSvc := stats.NewService(clients.Firestore, summarizer)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:              cfg,
		Verifier:         clients.Auth,
		PricingSvc:       pricingSvc,
		ProvidersSvc:     providersSvc,
		PaymentsSvc:      paymentsSvc,
		ReviewsSvc:       reviewsSvc,
		BackupsSvc:       backupsSvc,
		LegalSvc:         legalSvc,
		NotificationsSvc: notificationsSvc,
		StatsSvc:         statsSvc,
		Claims:           handlers.NewClaims(userRepo, clients.Auth),
		Uploads:          handlers.NewUploads(cfg.StorageBucket, signer),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.Printf("API listening on :%s (project=%s)", cfg.Port, cfg.ProjectID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("shutting down...")
	_ = srv.Shutdown(ctxShutdown)
}
