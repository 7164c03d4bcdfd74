package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"edicola/internal/importer"
	"edicola/pkg/database"
)

func main() {
	var (
		file   = flag.String("file", "", "path to the catalog snapshot CSV")
		dbPath = flag.String("db", "", "override database path")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: import-csv -file snapshot.csv [-db path]")
	}

	cfg := database.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open snapshot: %v", err)
	}
	defer f.Close()

	rows, err := importer.ReadCSV(f)
	if err != nil {
		log.Fatalf("read snapshot: %v", err)
	}
	log.Printf("[import] %d rows read from %s", len(rows), *file)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := importer.Apply(ctx, db, rows)
	if err != nil {
		log.Fatalf("apply snapshot: %v", err)
	}

	log.Printf("[import] new magazines: %d", summary.NewMagazines)
	log.Printf("[import] new issues: %d", summary.NewIssues)
	log.Printf("[import] confirmed issues: %d", summary.UpdatedIssues)
	log.Printf("[import] removed issues: %d", summary.DeletedIssues)
}
