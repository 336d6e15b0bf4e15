package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

// SQLiteStore backs the two pieces of local state the assistant keeps: the
// nonce floor (so restarts never reuse a signed-request nonce) and a journal
// of orders this process placed. Everything else lives on the exchange.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS nonce_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_nonce INTEGER NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS order_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			client_order_id TEXT,
			pair TEXT NOT NULL,
			side TEXT NOT NULL,
			sizing TEXT NOT NULL,
			amount REAL NOT NULL,
			price REAL NOT NULL,
			status TEXT NOT NULL,
			submitted_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_order_journal_submitted ON order_journal(submitted_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NonceStore implementation

func (s *SQLiteStore) LoadNonce(ctx context.Context) (int64, error) {
	var nonce int64
	err := s.db.QueryRowContext(ctx, `SELECT last_nonce FROM nonce_state WHERE id = 1`).Scan(&nonce)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return nonce, nil
}

func (s *SQLiteStore) SaveNonce(ctx context.Context, nonce int64) error {
	query := `INSERT INTO nonce_state (id, last_nonce, updated_at) VALUES (1, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET last_nonce = excluded.last_nonce, updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, nonce, time.Now().UTC())
	return err
}

// OrderJournal implementation

func (s *SQLiteStore) SaveOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO order_journal (order_id, client_order_id, pair, side, sizing, amount, price, status, submitted_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		order.ID, order.ClientOrderID, order.Pair.String(), string(order.Side),
		string(order.SizingMode), order.Amount, order.Price, string(order.Status), order.SubmitTime.UTC())
	return err
}

func (s *SQLiteStore) ListOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT order_id, client_order_id, pair, side, sizing, amount, price, status, submitted_at
			  FROM order_journal ORDER BY submitted_at DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var (
			o          domain.Order
			pairStr    string
			side       string
			sizing     string
			status     string
			submitTime time.Time
		)
		if err := rows.Scan(&o.ID, &o.ClientOrderID, &pairStr, &side, &sizing, &o.Amount, &o.Price, &status, &submitTime); err != nil {
			return nil, err
		}
		pair, err := domain.ParsePair(pairStr)
		if err != nil {
			continue
		}
		o.Pair = pair
		o.Side = domain.Side(side)
		o.SizingMode = domain.SizingMode(sizing)
		o.Status = domain.OrderStatus(status)
		o.SubmitTime = submitTime
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}
