package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/paymybuddy/paymybuddy-be/internal/api/handlers"
	"github.com/paymybuddy/paymybuddy-be/internal/auth"
	"github.com/paymybuddy/paymybuddy-be/internal/monitoring"
	"github.com/paymybuddy/paymybuddy-be/internal/services"
	"github.com/paymybuddy/paymybuddy-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	monitor *monitoring.HealthMonitor,
	userService services.UserServiceProvider,
	buddyService services.BuddyServiceProvider,
	transferService services.TransferServiceProvider,
	eventService services.EventServiceProvider,
	scheduleService services.ScheduleServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	buddyHandler := handlers.NewBuddyHandler(buddyService)
	transferHandler := handlers.NewTransferHandler(transferService)
	eventHandler := handlers.NewEventHandler(eventService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	systemHandler := handlers.NewSystemHandler(monitor)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public authentication endpoints
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		// WebSocket connection endpoints
		r.Get("/ws", wsHandler.Serve)
		r.Get("/ws/users/{id}", wsHandler.Serve)

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.GetAll)
				r.Get("/me", userHandler.GetMe)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.Get)
					r.Put("/", userHandler.Update)
					r.Delete("/", userHandler.Delete)
					r.Post("/password", userHandler.ChangePassword)
				})
			})

			r.Route("/balance", func(r chi.Router) {
				r.Post("/deposit", transferHandler.Deposit)
				r.Post("/withdraw", transferHandler.Withdraw)
			})

			r.Route("/buddies", func(r chi.Router) {
				r.Get("/", buddyHandler.GetAll)
				r.Post("/", buddyHandler.Add)
				r.Delete("/{email}", buddyHandler.Remove)
			})

			r.Route("/transfers", func(r chi.Router) {
				r.Get("/", transferHandler.GetAll)
				r.Post("/", transferHandler.Create)
			})

			r.Get("/events", eventHandler.GetRecent)

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", scheduleHandler.GetAll)
				r.Post("/", scheduleHandler.Create)
				r.Route("/{scheduleId}", func(r chi.Router) {
					r.Put("/", scheduleHandler.Update)
					r.Delete("/", scheduleHandler.Delete)
				})
			})

			r.Get("/system/stats", systemHandler.GetStats)
		})
	})

	return r
}
