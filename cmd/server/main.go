package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medimind/internal/auth"
	"medimind/internal/config"
	"medimind/internal/database"
	"medimind/internal/handlers"
	"medimind/internal/middleware"
	"medimind/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	// Load environment variables
	if err := loadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize security components
	jwtManager := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionDuration)
	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow)
	loginRateLimiter := middleware.NewRateLimiter(cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Session lifecycle: each login gets an in-memory store and a
	// reminder scheduler, torn down on logout or shutdown
	events := auth.NewSessionEvents()
	defer events.Close()
	events.Subscribe(func(ev auth.SessionEvent) {
		if ev.LoggedIn {
			log.Printf("session started for user %d", ev.UserID)
		} else {
			log.Printf("session ended for user %d", ev.UserID)
		}
	})

	sessions := services.NewSessionManager(db, cfg.Scheduler.TickInterval, events)

	// Initialize router
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders(cfg.Security.CSPEnabled, cfg.Security.HSTSEnabled))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes (no authentication required)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		// Authentication routes
		r.Route("/api/auth", func(r chi.Router) {
			r.With(loginRateLimiter.Middleware).Post("/login", handlers.HandleLogin(db, jwtManager, sessions))
			r.With(loginRateLimiter.Middleware).Post("/register", handlers.HandleRegister(db))
		})
	})

	// Protected routes (authentication required)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(rateLimiter.Middleware)

		r.Route("/api", func(r chi.Router) {
			// User routes
			r.Get("/auth/me", handlers.HandleGetCurrentUser(db))
			r.Post("/auth/logout", handlers.HandleLogout(sessions))

			// Medicine routes
			r.Route("/medicines", func(r chi.Router) {
				r.Get("/", handlers.HandleListMedicines(sessions))
				r.Post("/", handlers.HandleCreateMedicine(sessions))
				r.Put("/{id}", handlers.HandleUpdateMedicine(sessions))
				r.Delete("/{id}", handlers.HandleDeleteMedicine(sessions))
				r.Post("/{id}/intake", handlers.HandleRecordIntake(sessions))
				r.Put("/{id}/stock", handlers.HandleUpdateStock(sessions, db))
				r.Get("/{id}/stock/history", handlers.HandleGetStockHistory(db))
			})

			// Intake history and statistics
			r.Get("/logs", handlers.HandleListLogs(sessions))
			r.Get("/adherence", handlers.HandleGetAdherence(sessions, cfg.Adherence.WindowDays))
			r.Get("/schedule/today", handlers.HandleGetTodaySchedule(sessions))

			// Medical profile routes
			r.Get("/profile", handlers.HandleGetProfile(db))
			r.Put("/profile", handlers.HandleUpdateProfile(db))

			// Notification routes
			r.Get("/notifications", handlers.HandleListNotifications(db))
			r.Put("/notifications/{id}/read", handlers.HandleMarkNotificationRead(db))
			r.Put("/notifications/read-all", handlers.HandleMarkAllNotificationsRead(db))

			// Export routes
			r.Get("/export/csv", handlers.HandleExportCSV(sessions))
			r.Get("/export/pdf", handlers.HandleExportPDF(sessions))
		})
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
		sessions.Shutdown()
	}
}

// loadEnv loads environment variables from .env file
func loadEnv() error {
	data, err := os.ReadFile(".env")
	if err != nil {
		return err
	}

	lines := splitLines(string(data))
	for _, line := range lines {
		if line == "" || line[0] == '#' {
			continue
		}

		parts := splitOnce(line, '=')
		if len(parts) == 2 {
			os.Setenv(parts[0], parts[1])
		}
	}

	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitOnce(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
