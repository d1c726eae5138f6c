package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/config"
	"github.com/arnavdesai/MentorLink/internal/handlers"
	"github.com/arnavdesai/MentorLink/internal/relay"
	"github.com/arnavdesai/MentorLink/internal/repositories"
	"github.com/arnavdesai/MentorLink/internal/routes"
	"github.com/arnavdesai/MentorLink/internal/services"
	"github.com/arnavdesai/MentorLink/internal/utils"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.DatabaseURL == "" || cfg.JWTSecret == "" {
		log.Fatal().Msg("DATABASE_URL and JWT_SECRET are required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("database unreachable")
	}

	bookingRepo := repositories.NewBookingRepository(db)
	connectionRepo := repositories.NewConnectionRepository(db)
	mentorRepo := repositories.NewMentorRepository(db)
	userRepo := repositories.NewUserRepository(db)
	availabilityRepo := repositories.NewAvailabilityRepository(db)
	attemptRepo := repositories.NewCallAttemptRepository(db)

	hub := relay.NewHub()

	bookingService := services.NewBookingService(
		bookingRepo, connectionRepo, mentorRepo, userRepo, availabilityRepo,
		services.NewRelayNotifier(hub), utils.SystemClock{},
	)
	callService := services.NewCallService(attemptRepo, bookingRepo, mentorRepo, userRepo, hub, utils.SystemClock{})

	bookingHandler := handlers.NewBookingHandler(bookingService)
	callHandler := handlers.NewCallHandler(callService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, callService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	routes.RegisterPublicEndpoints(router, bookingHandler, webSocketHandler, userRepo, cfg.JWTSecret)
	routes.RegisterProtectedEndpoints(router, bookingHandler, callHandler, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
