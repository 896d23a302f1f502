package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"docshelf/internal/config"
	"docshelf/internal/engine"
	"docshelf/internal/handler"
	"docshelf/internal/kv"
	"docshelf/internal/middleware"
	"docshelf/internal/store"
	"docshelf/internal/store/postgres"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
	)

	ctx := context.Background()

	// Select the NodeStore medium.
	var nodeStore store.NodeStore
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()
		table := cfg.TablePrefix + "nodes"
		if err := postgres.EnsureSchema(ctx, pool, table); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		nodeStore = postgres.NewNodeStore(pool, table)
		logger.Info("database connected", "table", table)

	case config.BackendBadger:
		db, err := kv.OpenBadger(kv.BadgerOptions{
			Dir:    cfg.DataDir,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("Failed to open badger store: %v", err)
		}
		defer db.Close()
		nodeStore = store.NewKVNodeStore(db)
		logger.Info("badger store opened", "dir", cfg.DataDir)

	default:
		log.Fatalf("Unknown storage backend: %q", cfg.StorageBackend)
	}

	// Optional YAML settings file for repository tunables.
	settings := config.DefaultSettings()
	if cfg.SettingsPath != "" {
		var err error
		if settings, err = config.LoadSettings(cfg.SettingsPath); err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
	}

	// Rebuilds the tree index from persisted records on startup.
	eng, err := engine.New(ctx, nodeStore, settings, logger)
	if err != nil {
		log.Fatalf("Failed to initialize repository engine: %v", err)
	}

	folderHandler := handler.NewFolderHandler(eng, logger)
	docHandler := handler.NewDocumentHandler(eng, logger)
	nodeHandler := handler.NewNodeHandler(eng, logger)
	treeHandler := handler.NewTreeHandler(eng, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}/contents", folderHandler.ListContents)
	mux.HandleFunc("POST /api/folders/{id}/toggle", folderHandler.ToggleExpand)

	// Top-level listing
	mux.HandleFunc("GET /api/contents", folderHandler.ListRoot)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("PUT /api/documents/{id}", docHandler.UpdateDocument)

	// Node routes (folders and documents alike)
	mux.HandleFunc("GET /api/nodes/{id}", nodeHandler.GetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", nodeHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodeHandler.DeleteNode)
	mux.HandleFunc("POST /api/nodes/{id}/move", nodeHandler.MoveNode)
	mux.HandleFunc("POST /api/nodes/{id}/tags", nodeHandler.AddTag)
	mux.HandleFunc("DELETE /api/nodes/{id}/tags/{tag}", nodeHandler.RemoveTag)
	mux.HandleFunc("GET /api/nodes/{id}/breadcrumb", nodeHandler.Breadcrumb)

	// Tree, search, navigation
	mux.HandleFunc("GET /api/tree", treeHandler.GetTree)
	mux.HandleFunc("GET /api/search", treeHandler.Search)
	mux.HandleFunc("POST /api/navigate", treeHandler.Navigate)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Logging → Routes
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
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

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
