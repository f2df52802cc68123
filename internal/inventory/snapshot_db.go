package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	saveTimeout  = 10 * time.Second
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS inventory_products (
	id              INTEGER PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	kind            TEXT NOT NULL,
	brand           JSONB NOT NULL DEFAULT '[]',
	category        TEXT NOT NULL DEFAULT '',
	quantity        INTEGER NOT NULL DEFAULT 0,
	price           NUMERIC NOT NULL DEFAULT 0,
	expiration_date TEXT
)`

// PostgresSnapshot keeps the whole inventory in one table. Save replaces
// the table content in a single transaction.
type PostgresSnapshot struct {
	db *sql.DB
}

func NewPostgresSnapshot(db *sql.DB) *PostgresSnapshot {
	return &PostgresSnapshot{db: db}
}

// OpenPostgres opens a pgx-backed *sql.DB and makes sure the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSnapshot, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := NewPostgresSnapshot(db)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSnapshot) Close() error {
	return s.db.Close()
}

func (s *PostgresSnapshot) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSnapshot) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	})
}

func (s *PostgresSnapshot) Load(ctx context.Context) (*MemStore, error) {
	store := NewMemStore()

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, kind, brand, category, quantity, price, expiration_date
			FROM inventory_products
			ORDER BY name ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id, quantity   int
				name, kind     string
				brandJSON      []byte
				category       string
				price          decimal.Decimal
				expirationDate sql.NullString
			)
			if err := rows.Scan(&id, &name, &kind, &brandJSON, &category, &quantity, &price, &expirationDate); err != nil {
				return err
			}

			var brand []string
			if err := json.Unmarshal(brandJSON, &brand); err != nil {
				return fmt.Errorf("%w: brand of %q: %v", ErrCorruptData, name, err)
			}

			var exp *string
			if Kind(kind) == KindPerishable {
				exp = &expirationDate.String
			}

			store.restore(newProduct(id, name, category, brand, max(quantity, 0), price, exp))
		}
		return rows.Err()
	})
	if err != nil {
		return NewMemStore(), fmt.Errorf("load inventory: %w", err)
	}

	return store, nil
}

func (s *PostgresSnapshot) Save(ctx context.Context, st Store) error {
	products := st.List()

	return withTimeout(ctx, saveTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_products`); err != nil {
			return fmt.Errorf("clear inventory: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory_products (id, name, kind, brand, category, quantity, price, expiration_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range products {
			brand, err := json.Marshal(p.Brand())
			if err != nil {
				return err
			}

			var exp sql.NullString
			if p.Perishable != nil {
				exp = sql.NullString{String: p.Perishable.ExpirationDate, Valid: true}
			}

			if _, err := stmt.ExecContext(ctx, p.ID, p.Name, string(p.Kind()), string(brand), p.Category, p.Quantity, p.Price, exp); err != nil {
				return fmt.Errorf("insert %q: %w", p.Name, err)
			}
		}

		return tx.Commit()
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
