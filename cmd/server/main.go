package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/chapterquiz/backend/internal/ai"
	"github.com/chapterquiz/backend/internal/analytics"
	"github.com/chapterquiz/backend/internal/auth"
	"github.com/chapterquiz/backend/internal/cache"
	"github.com/chapterquiz/backend/internal/chapters"
	"github.com/chapterquiz/backend/internal/database"
	"github.com/chapterquiz/backend/internal/middleware"
	"github.com/chapterquiz/backend/internal/quizzes"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	quizCache := cache.New()
	defer quizCache.Close()

	aiService := ai.NewService()

	chapterStore := chapters.NewStore(db)
	chapterService := chapters.NewService(chapterStore, aiService)
	quizStore := quizzes.NewStore(db)
	quizService := quizzes.NewService(quizStore, chapterStore, aiService, quizCache)
	analyticsService := analytics.NewService(analytics.NewStore(db))

	// Initialize handlers
	authHandler := auth.NewHandler(db)
	chapterHandler := chapters.NewHandler(chapterService)
	quizHandler := quizzes.NewHandler(quizService)
	analyticsHandler := analytics.NewHandler(analyticsService)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogging)
	r.Use(middleware.NewRateLimiter().Middleware)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/chapters", chapterHandler.Upload).Methods("POST")
	protected.HandleFunc("/chapters", chapterHandler.List).Methods("GET")
	protected.HandleFunc("/chapters/{id}", chapterHandler.Get).Methods("GET")
	protected.HandleFunc("/chapters/{id}/progress", chapterHandler.UpdateProgress).Methods("PUT")
	protected.HandleFunc("/chapters/{id}/status", chapterHandler.Status).Methods("GET")

	protected.HandleFunc("/quizzes/generate/{chapter_id}", quizHandler.Generate).Methods("POST")
	protected.HandleFunc("/quizzes/attempts", quizHandler.ListAttempts).Methods("GET")
	protected.HandleFunc("/quizzes/{id}", quizHandler.Get).Methods("GET")
	protected.HandleFunc("/quizzes/{id}/submit", quizHandler.Submit).Methods("POST")

	protected.HandleFunc("/analytics/me", analyticsHandler.MyPerformance).Methods("GET")
	protected.HandleFunc("/analytics/chapters/{id}", analyticsHandler.ChapterAnalytics).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
