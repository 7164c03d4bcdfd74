package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"edicola/internal/issue"
	"edicola/internal/magazine"
	"edicola/internal/numbering"
	"edicola/pkg/database"
)

func main() {
	var (
		out     = flag.String("out", "", "output file (default stdout)")
		dbPath  = flag.String("db", "", "override database path")
		missing = flag.Bool("missing", false, "export the missing-numbers report instead of the catalog")
	)
	flag.Parse()

	cfg := database.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	dest := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create output: %v", err)
		}
		defer f.Close()
		dest = f
	}
	w := csv.NewWriter(dest)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	magazines := magazine.NewRepo(db)
	issues := issue.NewRepo(db)
	rules := numbering.NewRepo(db)

	var err error
	if *missing {
		err = exportMissing(ctx, w, magazines, issues, rules)
	} else {
		err = exportCatalog(ctx, w, magazines, issues)
	}
	if err != nil {
		log.Fatalf("export: %v", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("write csv: %v", err)
	}
}

// exportCatalog writes the full catalog in the snapshot format, so the
// output feeds straight back into import-csv.
func exportCatalog(ctx context.Context, w *csv.Writer, magazines *magazine.Repo, issues *issue.Repo) error {
	if err := w.Write([]string{"magazine", "year", "number", "copies", "is_new"}); err != nil {
		return err
	}

	mags, err := magazines.List(ctx, "")
	if err != nil {
		return err
	}

	for _, m := range mags {
		list, err := issues.ListForMagazine(ctx, m.ID)
		if err != nil {
			return err
		}
		sort.Slice(list, func(i, j int) bool {
			yi, yj := -1, -1
			if list[i].Year != nil {
				yi = *list[i].Year
			}
			if list[j].Year != nil {
				yj = *list[j].Year
			}
			if yi != yj {
				return yi < yj
			}
			return list[i].Number < list[j].Number
		})
		for _, is := range list {
			// empty year keeps the file importable; ReadCSV treats it as no year
			year := ""
			if is.Year != nil {
				year = strconv.Itoa(*is.Year)
			}
			rec := []string{m.Name, year, is.Number, strconv.Itoa(is.Copies), boolField(is.IsNew)}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportMissing(ctx context.Context, w *csv.Writer, magazines *magazine.Repo, issues *issue.Repo, rules *numbering.Repo) error {
	if err := w.Write([]string{"magazine", "year", "number"}); err != nil {
		return err
	}

	mags, err := magazines.List(ctx, "")
	if err != nil {
		return err
	}

	for _, m := range mags {
		magRules, err := rules.ListForMagazine(ctx, m.ID)
		if err != nil {
			return err
		}
		if len(magRules) == 0 {
			continue
		}
		magIssues, err := issues.ListForMagazine(ctx, m.ID)
		if err != nil {
			return err
		}

		report := numbering.Missing(magRules, magIssues)
		for _, re := range report.RuleErrors {
			log.Printf("[export] %s: rule %d skipped: %s", m.Name, re.RuleID, re.Reason)
		}
		for _, mn := range report.Missing {
			rec := []string{m.Name, yearField(mn.Year), mn.Label()}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func yearField(y *int) string {
	if y == nil {
		return "-"
	}
	return strconv.Itoa(*y)
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
