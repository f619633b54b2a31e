package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/paymybuddy/paymybuddy-be/internal/api"
	"github.com/paymybuddy/paymybuddy-be/internal/auth"
	"github.com/paymybuddy/paymybuddy-be/internal/config"
	"github.com/paymybuddy/paymybuddy-be/internal/database"
	"github.com/paymybuddy/paymybuddy-be/internal/logger"
	"github.com/paymybuddy/paymybuddy-be/internal/monitoring"
	"github.com/paymybuddy/paymybuddy-be/internal/services"
	"github.com/paymybuddy/paymybuddy-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Environment)
	auth.Init(cfg.JWTSecret)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	buddyService := services.NewBuddyService(db, userService, eventService)
	transferService := services.NewTransferService(db, userService, buddyService, eventService, hub)
	scheduleService := services.NewScheduleService(db, eventService)

	// Set up and run the host health monitor
	monitor := monitoring.NewHealthMonitor(hub)
	go monitor.Run()

	// Set up and run the standing-order scheduler
	scheduler := monitoring.NewScheduler(scheduleService, transferService, eventService)
	go scheduler.Run()

	// Set up router
	router := api.NewRouter(hub, monitor, userService, buddyService, transferService, eventService, scheduleService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	monitor.Stop()   // Stop the health monitor
	scheduler.Stop() // Stop the scheduler

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
