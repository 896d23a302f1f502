// Command seed populates a repository with a small sample forest for
// local development.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"docshelf/internal/config"
	"docshelf/internal/engine"
	"docshelf/internal/kv"
	"docshelf/internal/store"
	"docshelf/internal/store/postgres"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the nodes table before seeding (postgres backend only)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("Refusing to drop tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	var nodeStore store.NodeStore
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		table := cfg.TablePrefix + "nodes"
		if *dropTables {
			if err := postgres.DropTable(ctx, pool, table); err != nil {
				log.Fatalf("Failed to drop table: %v", err)
			}
		}
		if err := postgres.EnsureSchema(ctx, pool, table); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		nodeStore = postgres.NewNodeStore(pool, table)

	case config.BackendBadger:
		db, err := kv.OpenBadger(kv.BadgerOptions{Dir: cfg.DataDir, Logger: logger})
		if err != nil {
			log.Fatalf("Failed to open badger store: %v", err)
		}
		defer db.Close()
		nodeStore = store.NewKVNodeStore(db)

	default:
		log.Fatalf("Unknown storage backend: %q", cfg.StorageBackend)
	}

	eng, err := engine.New(ctx, nodeStore, config.DefaultSettings(), logger)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	if err := seedForest(ctx, eng); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}

func seedForest(ctx context.Context, eng *engine.Engine) error {
	projects, err := eng.CreateFolder(ctx, &engine.CreateFolderRequest{
		Name: "Projects",
		Tags: []string{"workspace"},
	})
	if err != nil {
		return err
	}

	reports, err := eng.CreateFolder(ctx, &engine.CreateFolderRequest{
		ParentID:    &projects.ID,
		Name:        "Reports",
		AccessLevel: "restricted",
	})
	if err != nil {
		return err
	}

	archive, err := eng.CreateFolder(ctx, &engine.CreateFolderRequest{
		Name:        "Archive",
		AccessLevel: "admin",
		Tags:        []string{"cold-storage"},
	})
	if err != nil {
		return err
	}

	docs := []engine.CreateDocumentRequest{
		{
			ParentID: &reports.ID,
			Name:     "Q3 Summary",
			FileType: "pdf",
			ByteSize: 482113,
			Tags:     []string{"quarterly", "finance"},
			Metadata: map[string]any{"author": "ops", "pages": 12},
		},
		{
			ParentID:    &projects.ID,
			Name:        "Roadmap",
			FileType:    "md",
			ByteSize:    10240,
			AccessLevel: "public",
			Tags:        []string{"planning"},
		},
		{
			ParentID: &archive.ID,
			Name:     "2024 Ledger",
			FileType: "xlsx",
			ByteSize: 2097152,
			Metadata: map[string]any{"year": 2024},
		},
	}
	for i := range docs {
		if _, err := eng.CreateDocument(ctx, &docs[i]); err != nil {
			return err
		}
	}
	return nil
}
