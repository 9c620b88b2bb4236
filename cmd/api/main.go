package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/petify/petify-api/internal/config"
	"github.com/petify/petify-api/internal/email"
	accessHandler "github.com/petify/petify-api/internal/handler/access"
	adminHandler "github.com/petify/petify-api/internal/handler/admin"
	bookingHandler "github.com/petify/petify-api/internal/handler/booking"
	chatHandler "github.com/petify/petify-api/internal/handler/chat"
	favoriteHandler "github.com/petify/petify-api/internal/handler/favorite"
	"github.com/petify/petify-api/internal/handler/health"
	notificationHandler "github.com/petify/petify-api/internal/handler/notification"
	onboardingHandler "github.com/petify/petify-api/internal/handler/onboarding"
	paymentHandler "github.com/petify/petify-api/internal/handler/payment"
	petHandler "github.com/petify/petify-api/internal/handler/pet"
	providerHandler "github.com/petify/petify-api/internal/handler/provider"
	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/internal/onboarding"
	"github.com/petify/petify-api/internal/repository/postgres"
	"github.com/petify/petify-api/internal/router"
	adminService "github.com/petify/petify-api/internal/service/admin"
	bookingService "github.com/petify/petify-api/internal/service/booking"
	chatService "github.com/petify/petify-api/internal/service/chat"
	eventService "github.com/petify/petify-api/internal/service/event"
	favoriteService "github.com/petify/petify-api/internal/service/favorite"
	notificationService "github.com/petify/petify-api/internal/service/notification"
	onboardingService "github.com/petify/petify-api/internal/service/onboarding"
	paymentService "github.com/petify/petify-api/internal/service/payment"
	petService "github.com/petify/petify-api/internal/service/pet"
	providerService "github.com/petify/petify-api/internal/service/provider"
	reviewService "github.com/petify/petify-api/internal/service/review"
	"github.com/petify/petify-api/pkg/auth"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/messaging"
	"github.com/petify/petify-api/pkg/messaging/redis"
	"github.com/petify/petify-api/pkg/metrics"
	"github.com/petify/petify-api/pkg/payment"
	"github.com/petify/petify-api/pkg/querycache"
	"github.com/petify/petify-api/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Format:  cfg.Log.Format,
		Service: "petify-api",
	})
	log.Logger = appLog.ZL
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New("petify", registry)

	// Repositories
	base := postgres.NewBaseRepository(db)
	profileRepo := postgres.NewProfileRepository(base)
	providerRepo := postgres.NewProviderRepository(base)
	bookingRepo := postgres.NewBookingRepository(base)
	petRepo := postgres.NewPetRepository(base)
	reviewRepo := postgres.NewReviewRepository(base)
	favoriteRepo := postgres.NewFavoriteRepository(base)
	conversationRepo := postgres.NewConversationRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Optional collaborators
	var mailer email.Service = email.NewNoopService(appLog)
	if cfg.SMTP.Enabled() {
		mailer = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		b, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), &appLog.ZL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer b.Close()
		broker = b
	} else {
		appLog.Warn("Redis not configured, chat streaming disabled")
	}

	var processor payment.Processor
	if cfg.Stripe.Enabled() {
		processor = payment.NewStripeProcessor(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		appLog.Warn("Stripe not configured, payment routes disabled")
	}

	var uploader storage.Uploader
	if cfg.Cloudinary.URL != "" {
		u, err := storage.NewCloudinaryUploader(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure image store")
		}
		uploader = u
	} else {
		appLog.Warn("Cloudinary not configured, media uploads disabled")
	}

	cache := querycache.New(querycache.Config{
		StaleAfter:  cfg.QueryCache.StaleAfter,
		ExpireAfter: cfg.QueryCache.ExpireAfter,
		MaxRetries:  cfg.QueryCache.MaxRetries,
	}, appLog, appMetrics)
	defer cache.Close()

	// Services
	events := eventService.NewService(outboxRepo)
	notifSvc := notificationService.NewService(notificationRepo, profileRepo, mailer, appLog)
	providerSvc := providerService.NewService(providerRepo, reviewRepo, profileRepo, cache, events, appLog)
	bookingSvc := bookingService.NewService(bookingRepo, providerRepo, petRepo, notifSvc, events, processor, appLog)
	paymentSvc := paymentService.NewService(processor, bookingSvc, appLog)
	chatSvc := chatService.NewService(conversationRepo, providerRepo, notifSvc, broker, appLog)
	petSvc := petService.NewService(petRepo, appLog)
	favoriteSvc := favoriteService.NewService(favoriteRepo, providerRepo)
	reviewSvc := reviewService.NewService(reviewRepo, providerRepo, bookingRepo, providerSvc, appLog)
	adminSvc := adminService.NewService(profileRepo, providerRepo, bookingRepo, providerSvc, appLog)
	onboardingSvc := onboardingService.NewService(
		onboarding.NewStore(cfg.Onboarding.SessionTTL, cfg.Onboarding.CleanupInterval),
		providerSvc,
		uploader,
		appLog,
	)

	authMiddleware := middleware.NewAuthMiddleware(
		auth.NewHMACVerifier(cfg.Backend.JWTSecret, cfg.Backend.JWTAudience),
		profileRepo,
	)

	var limit rate.Limit
	if cfg.RateLimit.Enabled {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(router.Config{
		Production:     cfg.IsProduction(),
		AccessCode:     cfg.AccessGate.Code,
		MapToken:       cfg.Map.Token,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit:      limit,
		RateBurst:      cfg.RateLimit.Burst,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxUploadBytes: cfg.Onboarding.MaxUploadBytes,
	}, authMiddleware, appMetrics, registry)

	r.Mount(
		health.NewHandler(db),
		accessHandler.NewHandler(cfg.AccessGate.Code, cfg.IsProduction()),
		providerHandler.NewHandler(providerSvc, reviewSvc),
		paymentHandler.NewHandler(paymentSvc, cfg.Stripe.PublishableKey),
		bookingHandler.NewHandler(bookingSvc),
		chatHandler.NewHandler(chatSvc),
		petHandler.NewHandler(petSvc),
		favoriteHandler.NewHandler(favoriteSvc),
		notificationHandler.NewHandler(notifSvc),
		onboardingHandler.NewHandler(onboardingSvc),
		adminHandler.NewHandler(adminSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     r.Engine(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// Chat streams stay open, so WriteTimeout is left to config (0 by default).
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLog.Info("Server listening", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(err, "Server forced to shutdown")
	}

	appLog.Info("Server exited properly")
}
