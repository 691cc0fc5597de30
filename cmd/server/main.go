package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/dkarim07/notification-hub/internal/config"
	"github.com/dkarim07/notification-hub/internal/database"
	"github.com/dkarim07/notification-hub/internal/handlers"
	"github.com/dkarim07/notification-hub/internal/relay"
	"github.com/dkarim07/notification-hub/internal/repository"
	cronjobs "github.com/dkarim07/notification-hub/internal/scheduler"
	"github.com/dkarim07/notification-hub/internal/services"
	"github.com/dkarim07/notification-hub/pkg/logger"
	"github.com/dkarim07/notification-hub/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// Telegram relay client; degrades gracefully when unconfigured.
	telegramRelay := relay.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramAdminChatID)

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	// --- Services ---
	userService := services.NewUserService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, telegramRelay)
	templateService := services.NewTemplateService(templateRepo)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(notificationService, templateService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/register", userHandler.RegisterUserHandler).Methods("POST")
	api.HandleFunc("/auth/login", userHandler.LoginUserHandler).Methods("POST")

	// User routes (authenticated users)
	userRoutes := api.PathPrefix("/users").Subrouter()
	userRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	userRoutes.HandleFunc("/me", userHandler.GetMeHandler).Methods("GET")
	userRoutes.HandleFunc("/notifications/me", notificationHandler.GetMyNotificationsHandler).Methods("GET")
	userRoutes.HandleFunc("/notifications/mark-all-read", notificationHandler.MarkAllReadHandler).Methods("POST")
	userRoutes.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsReadHandler).Methods("PATCH")
	userRoutes.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Admin routes
	adminRoutes := api.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/users/{user_id}/notify", adminHandler.NotifyUserHandler).Methods("POST")
	adminRoutes.HandleFunc("/notifications/broadcast", adminHandler.BroadcastHandler).Methods("POST")
	adminRoutes.HandleFunc("/users/{user_id}/notifications", adminHandler.GetUserNotificationsHandler).Methods("GET")
	adminRoutes.HandleFunc("/notification-templates", adminHandler.GetTemplatesHandler).Methods("GET")
	adminRoutes.HandleFunc("/notification-templates", adminHandler.CreateTemplateHandler).Methods("POST")
	adminRoutes.HandleFunc("/notification-templates/{id}", adminHandler.DeleteTemplateHandler).Methods("DELETE")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Retention sweep for old read notifications
	cronjobs.StartRetentionCron(notificationService, cfg.RetentionDays)

	// Start the HTTP server
	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // adjust to frontend origin
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
