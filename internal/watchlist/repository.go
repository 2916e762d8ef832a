package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a watchlist or item does not exist or belongs
// to another user.
var ErrNotFound = errors.New("watchlist: not found")

// Repository handles watchlist persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a watchlist and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, userID, name string) (*Watchlist, error) {
	query := `
		INSERT INTO watchlists (id, user_id, name, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, user_id, name, created_at
	`

	w := &Watchlist{Items: []Item{}}
	err := r.db.QueryRow(ctx, query, uuid.New(), userID, name).Scan(
		&w.ID, &w.UserID, &w.Name, &w.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert watchlist: %w", err)
	}
	return w, nil
}

// Get fetches one watchlist with its items, scoped to its owner.
func (r *Repository) Get(ctx context.Context, id uuid.UUID, userID string) (*Watchlist, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM watchlists
		WHERE id = $1 AND user_id = $2
	`

	w := &Watchlist{}
	err := r.db.QueryRow(ctx, query, id, userID).Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}

	items, err := r.listItems(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	w.Items = items
	return w, nil
}

// List returns the user's watchlists with their items, newest first.
func (r *Repository) List(ctx context.Context, userID string) ([]Watchlist, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM watchlists
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlists: %w", err)
	}
	defer rows.Close()

	var out []Watchlist
	for rows.Next() {
		var w Watchlist
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.listItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// Delete removes a watchlist with its items.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM watchlists WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete watchlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddItem inserts a symbol onto the watchlist. Adding a symbol that is
// already present returns the existing item.
func (r *Repository) AddItem(ctx context.Context, watchlistID uuid.UUID, symbol string) (*Item, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	query := `
		INSERT INTO watchlist_items (id, watchlist_id, symbol, added_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (watchlist_id, symbol) DO UPDATE SET symbol = EXCLUDED.symbol
		RETURNING id, watchlist_id, symbol, added_at
	`

	item := &Item{}
	err := r.db.QueryRow(ctx, query, uuid.New(), watchlistID, symbol).Scan(
		&item.ID, &item.WatchlistID, &item.Symbol, &item.AddedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert watchlist item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one item off the watchlist.
func (r *Repository) RemoveItem(ctx context.Context, watchlistID, itemID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM watchlist_items WHERE id = $1 AND watchlist_id = $2`, itemID, watchlistID)
	if err != nil {
		return fmt.Errorf("delete watchlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) listItems(ctx context.Context, watchlistID uuid.UUID) ([]Item, error) {
	query := `
		SELECT id, watchlist_id, symbol, added_at
		FROM watchlist_items
		WHERE watchlist_id = $1
		ORDER BY added_at ASC
	`

	rows, err := r.db.Query(ctx, query, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.WatchlistID, &item.Symbol, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
