package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/auth"
	"github.com/peerpresence/server-go/internal/config"
	"github.com/peerpresence/server-go/internal/database"
	"github.com/peerpresence/server-go/internal/handler"
	"github.com/peerpresence/server-go/internal/jobs"
	"github.com/peerpresence/server-go/internal/middleware"
	"github.com/peerpresence/server-go/internal/realtime"
	"github.com/peerpresence/server-go/internal/redis"
	"github.com/peerpresence/server-go/internal/repository"
	"github.com/peerpresence/server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if cfg.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().Msg("schema applied")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	personRepo := repository.NewPersonRepository(db.DB)
	tutorRepo := repository.NewTutorRepository(db.DB)
	convRepo := repository.NewConversationRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	globalMsgRepo := repository.NewGlobalMessageRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	bookingRepo := repository.NewBookingRepository(db.DB)
	catalogRepo := repository.NewCatalogRepository(db.DB)

	limiter := service.NewRateLimiter(redisClient.Client)

	identityService := service.NewIdentityService(db, personRepo, tutorRepo)
	globalChatService := service.NewGlobalChatService(globalMsgRepo, limiter)

	bus := realtime.NewRedisBus(redisClient)
	defer bus.Close()

	gateway := realtime.NewGateway(bus, identityService, globalChatService, cfg.OriginAllowed)
	if err := gateway.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe realtime bus")
	}

	convService := service.NewConversationService(convRepo, identityService)
	messageService := service.NewMessageService(messageRepo, convService, gateway)
	bookingService := service.NewBookingService(db, bookingRepo, personRepo, tutorRepo)
	postService := service.NewPostService(postRepo)
	accountService := service.NewAccountService(personRepo)
	tutorService := service.NewTutorService(tutorRepo)
	catalogService := service.NewCatalogService(catalogRepo)

	tokens := auth.NewJWT(cfg.JWTSecret)
	authMiddleware := middleware.NewAuthMiddleware(tokens, personRepo)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimitPerMin)

	authHandler := handler.NewAuthHandler(accountService, tokens)
	accountHandler := handler.NewAccountHandler(accountService)
	tutorHandler := handler.NewTutorHandler(tutorService, authMiddleware.Handler)
	searchHandler := handler.NewSearchHandler(tutorService, catalogService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	postHandler := handler.NewPostHandler(postService, authMiddleware.Handler, authMiddleware.Optional)
	bookingHandler := handler.NewBookingHandler(bookingService)
	conversationHandler := handler.NewConversationHandler(convService)
	messageHandler := handler.NewMessageHandler(messageService)
	chatHandler := handler.NewChatHandler(globalChatService)
	healthHandler := handler.NewHealthHandler(db, gateway.Hub())

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.OriginAllowed))
	r.Use(middleware.SecurityHeaders(isProduction))
	r.Use(middleware.BodyLimit(0))

	r.Get("/health", healthHandler.ServeHTTP)

	// Long-lived; kept outside the request timeout.
	r.Get("/socket", gateway.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware.Handler)

			r.Mount("/auth", authHandler.Routes())
			r.Mount("/tutors", tutorHandler.Routes())
			r.Mount("/search", searchHandler.Routes())
			r.Mount("/posts", postHandler.Routes())
			r.Get("/courses", catalogHandler.Courses)
			r.Get("/subjects", catalogHandler.Subjects)
			r.Get("/chat/messages", chatHandler.Messages)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.Use(rateLimitMiddleware.Handler)

			r.Mount("/account", accountHandler.Routes())
			r.Mount("/bookings", bookingHandler.Routes())
			r.Mount("/conversations", conversationHandler.Routes())
			r.Mount("/messages", messageHandler.Routes())
		})
	})

	retentionJob := jobs.NewRetentionJob(globalChatService, cfg.GlobalChatRetentionDays, config.RetentionJobInterval)
	retentionJob.Start()
	defer retentionJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	gateway.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
