package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS phones (
	id       TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	brand    TEXT NOT NULL,
	name     TEXT NOT NULL,
	price    DOUBLE PRECISION NOT NULL,
	document TEXT NOT NULL
)`

type phoneRow struct {
	ID       string  `db:"id"`
	Position int     `db:"position"`
	Brand    string  `db:"brand"`
	Name     string  `db:"name"`
	Price    float64 `db:"price"`
	Document string  `db:"document"`
}

// Store persists catalog records in a SQL table so a deployment can manage
// its catalog outside the binary. The advisor reads it once at startup.
type Store struct {
	db *sqlx.DB
}

// OpenStore connects to a sqlite file or postgres database.
func OpenStore(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite":
		driver = "sqlite3"
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	return NewStore(db), nil
}

// NewStore wraps an existing connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the phones table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create phones table: %w", err)
	}
	return nil
}

// Save validates items and upserts them in one transaction. Positions follow
// slice order. onSaved, if set, is called after each row is written.
func (s *Store) Save(ctx context.Context, items []Item, onSaved func(Item)) error {
	if _, err := New(items); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`
		INSERT INTO phones (id, position, brand, name, price, document)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			position = excluded.position,
			brand = excluded.brand,
			name = excluded.name,
			price = excluded.price,
			document = excluded.document`)

	for i, it := range items {
		doc, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %s: %w", it.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, it.ID, i, it.Brand, it.Name, it.Price.Current, string(doc)); err != nil {
			return fmt.Errorf("upsert %s: %w", it.ID, err)
		}
		if onSaved != nil {
			onSaved(it)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

// Load reads every stored phone in position order and builds a catalog.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	var rows []phoneRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, position, brand, name, price, document FROM phones ORDER BY position, id`); err != nil {
		return nil, fmt.Errorf("query phones: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		var it Item
		if err := json.Unmarshal([]byte(row.Document), &it); err != nil {
			return nil, fmt.Errorf("decode %s: %w", row.ID, err)
		}
		items = append(items, it)
	}

	return New(items)
}

// Count returns the number of stored phones.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM phones`); err != nil {
		return 0, fmt.Errorf("count phones: %w", err)
	}
	return n, nil
}
