// Command seed-menu loads a menu definition into the record store. It accepts
// plain JSON or pgzip-compressed JSON (.gz) and works against both store
// drivers, so it can seed a local data directory or a shared database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria-api/internal/domain/menu"
	"github.com/xenking/pizzeria-api/internal/storage/records"
	"github.com/xenking/pizzeria-api/internal/store"
)

// itemJSON is the seed file format. Prices are decimal major units
// ("5.00" or 5.5), converted to minor units on load.
type itemJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func main() {
	var (
		driver      string
		dataDir     string
		databaseURL string
		menuFile    string
	)

	flag.StringVar(&driver, "driver", "file", "record store driver: file or postgres")
	flag.StringVar(&dataDir, "data-dir", ".data", "data directory for the file driver")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL for the postgres driver (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu JSON file (optionally .gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if driver == "postgres" && databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, driver, dataDir, databaseURL, menuFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, driver, dataDir, databaseURL, menuFile string) error {
	items, err := readMenuFile(menuFile)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}

	m := make(menu.Menu, len(items))
	for _, it := range items {
		if it.ID == "" || it.Name == "" {
			return errors.Errorf("menu item missing id or name: %+v", it)
		}
		minor := it.Price.Shift(2)
		if !minor.IsInteger() || minor.IsNegative() {
			return errors.Errorf("menu item %s has invalid price %s", it.ID, it.Price)
		}
		m[it.ID] = menu.Item{
			ID:    it.ID,
			Name:  it.Name,
			Price: minor.IntPart(),
		}
	}

	var recordStore store.Store
	switch driver {
	case "postgres":
		slog.Info("connecting to database")
		pool, err := store.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := store.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		recordStore = store.NewPostgresStore(pool)
	case "file":
		fs, err := store.NewFileStore(ctx, dataDir)
		if err != nil {
			return errors.Wrap(err, "open file store")
		}
		recordStore = fs
	default:
		return errors.Errorf("unknown store driver %q", driver)
	}

	slog.Info("writing menu", slog.Int("items", len(m)))

	if err := records.NewMenuRepository(recordStore).Put(ctx, m); err != nil {
		return errors.Wrap(err, "put menu")
	}
	for _, it := range m {
		slog.Info("seeded item", slog.String("id", it.ID), slog.String("name", it.Name), slog.Int64("price", it.Price))
	}
	return nil
}

// readMenuFile parses the seed file, transparently decompressing .gz input.
func readMenuFile(path string) ([]itemJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer zr.Close()
		r = zr
	}

	var items []itemJSON
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "parse menu JSON")
	}
	return items, nil
}
