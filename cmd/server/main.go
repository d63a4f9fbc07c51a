package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"registru/internal/auth"
	"registru/internal/config"
	"registru/internal/handler"
	"registru/internal/middleware"
	"registru/internal/repository/postgres"
	"registru/internal/service"
	"registru/internal/vocab"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	taskRepo := postgres.NewTaskRepository(repoConfig)
	contactRepo := postgres.NewContactRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Load the fixed value vocabularies
	vocabRegistry, err := vocab.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load vocabulary registry: %v", err)
	}
	logger.Info("vocabulary registry loaded",
		"document_tags", len(vocabRegistry.DocumentTags()),
		"task_statuses", len(vocabRegistry.TaskStatuses()),
	)

	// Create services
	docService := service.NewDocumentService(docRepo, txManager, vocabRegistry, logger)
	taskService := service.NewTaskService(taskRepo, txManager, vocabRegistry, logger)
	contactService := service.NewContactService(contactRepo, txManager, logger)

	// Create handlers
	docHandler := handler.NewDocumentHandler(docService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	contactHandler := handler.NewContactHandler(contactService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents/search", docHandler.SearchDocuments) // Must come before {id} route
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/versions", docHandler.AddVersion)
	mux.HandleFunc("GET /api/documents/{id}/versions", docHandler.ListVersions)
	mux.HandleFunc("GET /api/documents/{id}/versions/latest", docHandler.GetLatestVersion)
	mux.HandleFunc("GET /api/documents/{id}/versions/{version}", docHandler.GetVersion)
	mux.HandleFunc("POST /api/documents/{id}/rollback", docHandler.Rollback)

	// Task routes
	mux.HandleFunc("POST /api/tasks", taskHandler.CreateTask)
	mux.HandleFunc("GET /api/tasks", taskHandler.ListTasks)
	mux.HandleFunc("GET /api/tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", taskHandler.DeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/status", taskHandler.UpdateStatus)
	mux.HandleFunc("POST /api/tasks/{id}/assign", taskHandler.Assign)
	mux.HandleFunc("GET /api/tasks/{id}/history/status", taskHandler.GetStatusHistory)
	mux.HandleFunc("GET /api/tasks/{id}/history/assignments", taskHandler.GetAssignmentHistory)
	mux.HandleFunc("GET /api/tasks/{id}/watchers", taskHandler.ListWatchers)
	mux.HandleFunc("POST /api/tasks/{id}/watchers", taskHandler.AddWatcher)
	mux.HandleFunc("DELETE /api/tasks/{id}/watchers", taskHandler.RemoveWatcher)

	// Contact routes
	mux.HandleFunc("POST /api/contacts", contactHandler.CreateContact)
	mux.HandleFunc("GET /api/contacts", contactHandler.ListContacts)
	mux.HandleFunc("GET /api/contacts/{id}", contactHandler.GetContact)
	mux.HandleFunc("PATCH /api/contacts/{id}", contactHandler.UpdateContact)
	mux.HandleFunc("DELETE /api/contacts/{id}", contactHandler.DeleteContact)

	// Thread routes
	mux.HandleFunc("POST /api/threads", contactHandler.CreateThread)
	mux.HandleFunc("GET /api/threads", contactHandler.ListThreads)
	mux.HandleFunc("GET /api/threads/{id}", contactHandler.GetThread)
	mux.HandleFunc("POST /api/threads/{id}/messages", contactHandler.PostMessage)
	mux.HandleFunc("GET /api/threads/{id}/messages", contactHandler.ListMessages)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
