package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tracewire/tracewire/pkg/registry"
	"github.com/tracewire/tracewire/pkg/storage"
	"github.com/tracewire/tracewire/pkg/trace"
	"github.com/tracewire/tracewire/pkg/types"
)

var (
	dataDir    = flag.String("data-dir", "./tracewire-data", "Tracewire data directory")
	dryRun     = flag.Bool("dry-run", false, "Show what would be rebuilt without making changes")
	backupPath = flag.String("backup", "", "Path to backup the database before rebuilding (default: <data-dir>/tracewire.db.backup)")
)

// Offline path rebuild tool. Re-traces every cabled endpoint directly
// against the database and rewrites the materialized paths, without events
// or metrics. Use it after restoring a backup or when the path records are
// suspect; the running service's sweeper does the same job incrementally.
func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Tracewire Path Rebuild Tool")
	log.Println("===========================")

	dbPath := filepath.Join(*dataDir, "tracewire.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Fatalf("Database not found at %s", dbPath)
	}

	log.Printf("Database: %s", dbPath)
	log.Printf("Dry run: %v", *dryRun)

	if !*dryRun {
		backupFile := *backupPath
		if backupFile == "" {
			backupFile = dbPath + ".backup"
		}
		log.Printf("Creating backup: %s", backupFile)
		if err := copyFile(dbPath, backupFile); err != nil {
			log.Fatalf("Failed to create backup: %v", err)
		}
		log.Println("✓ Backup created successfully")
	}

	store, err := storage.NewBoltStore(*dataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	rebuilt, removed, err := rebuildPaths(store, *dryRun)
	if err != nil {
		log.Fatalf("Rebuild failed: %v", err)
	}

	if *dryRun {
		log.Printf("Dry run complete: %d paths would be rebuilt, %d removed", rebuilt, removed)
	} else {
		log.Printf("✓ Rebuild complete: %d paths rebuilt, %d removed", rebuilt, removed)
	}
}

func rebuildPaths(store *storage.BoltStore, dryRun bool) (rebuilt, removed int, err error) {
	tracer := trace.NewTracer(store)

	terminations, err := store.ListTerminations()
	if err != nil {
		return 0, 0, err
	}

	for _, term := range terminations {
		if registry.IsPassThrough(term.Type) {
			continue
		}

		if term.CableID == "" {
			if term.PathID == "" {
				continue
			}
			log.Printf("Removing path of uncabled endpoint %s", term.Ref())
			removed++
			if !dryRun {
				if err := store.DeletePathByOrigin(term.Ref()); err != nil {
					return rebuilt, removed, err
				}
			}
			continue
		}

		result, err := tracer.Trace(term.Ref())
		if err != nil {
			log.Printf("Skipping %s: %v", term.Ref(), err)
			continue
		}

		fresh := &types.CablePath{
			ID:          uuid.NewString(),
			Origin:      term.Ref(),
			Destination: result.Destination,
			Path:        result.Nodes,
			IsActive:    result.Destination != nil && result.AllConnected,
			IsSplit:     result.IsSplit(),
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if stored, err := store.GetPathByOrigin(term.Ref()); err == nil {
			if pathsMatch(stored, fresh) {
				continue
			}
			fresh.ID = stored.ID
			fresh.CreatedAt = stored.CreatedAt
		}

		log.Printf("Rebuilding path from %s", term.Ref())
		rebuilt++
		if !dryRun {
			if err := store.ReplacePath(fresh); err != nil {
				return rebuilt, removed, err
			}
		}
	}
	return rebuilt, removed, nil
}

func pathsMatch(a, b *types.CablePath) bool {
	if len(a.Path) != len(b.Path) {
		return false
	}
	for i := range a.Path {
		if a.Path[i] != b.Path[i] {
			return false
		}
	}
	if (a.Destination == nil) != (b.Destination == nil) {
		return false
	}
	if a.Destination != nil && *a.Destination != *b.Destination {
		return false
	}
	return a.IsActive == b.IsActive && a.IsSplit == b.IsSplit
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	return out.Sync()
}
