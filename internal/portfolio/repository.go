package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a portfolio or position does not exist or
// belongs to another user.
var ErrNotFound = errors.New("portfolio: not found")

// Repository handles portfolio persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePortfolio inserts a portfolio and returns it with generated fields.
func (r *Repository) CreatePortfolio(ctx context.Context, userID, name, currency string) (*Portfolio, error) {
	query := `
		INSERT INTO portfolios (id, user_id, name, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, user_id, name, currency, created_at, updated_at
	`

	p := &Portfolio{}
	err := r.db.QueryRow(ctx, query, uuid.New(), userID, name, currency).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Currency, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert portfolio: %w", err)
	}
	return p, nil
}

// GetPortfolio fetches one portfolio scoped to its owner.
func (r *Repository) GetPortfolio(ctx context.Context, id uuid.UUID, userID string) (*Portfolio, error) {
	query := `
		SELECT id, user_id, name, currency, created_at, updated_at
		FROM portfolios
		WHERE id = $1 AND user_id = $2
	`

	p := &Portfolio{}
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Currency, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query portfolio: %w", err)
	}
	return p, nil
}

// ListPortfolios returns the user's portfolios, newest first.
func (r *Repository) ListPortfolios(ctx context.Context, userID string) ([]Portfolio, error) {
	query := `
		SELECT id, user_id, name, currency, created_at, updated_at
		FROM portfolios
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query portfolios: %w", err)
	}
	defer rows.Close()

	var out []Portfolio
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Currency, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePortfolio renames a portfolio.
func (r *Repository) UpdatePortfolio(ctx context.Context, id uuid.UUID, userID, name string) error {
	query := `
		UPDATE portfolios
		SET name = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	tag, err := r.db.Exec(ctx, query, id, userID, name)
	if err != nil {
		return fmt.Errorf("update portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePortfolio removes a portfolio with its positions and transactions.
func (r *Repository) DeletePortfolio(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolios WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPositions returns the open positions of a portfolio.
func (r *Repository) ListPositions(ctx context.Context, portfolioID uuid.UUID) ([]Position, error) {
	query := `
		SELECT id, portfolio_id, symbol, quantity, avg_buy_price, COALESCE(sector, ''), created_at, updated_at
		FROM positions
		WHERE portfolio_id = $1
		ORDER BY symbol
	`

	rows, err := r.db.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.PortfolioID, &p.Symbol, &p.Quantity, &p.AvgBuyPrice, &p.Sector, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPosition fetches one position by symbol.
func (r *Repository) GetPosition(ctx context.Context, portfolioID uuid.UUID, symbol string) (*Position, error) {
	query := `
		SELECT id, portfolio_id, symbol, quantity, avg_buy_price, COALESCE(sector, ''), created_at, updated_at
		FROM positions
		WHERE portfolio_id = $1 AND symbol = $2
	`

	p := &Position{}
	err := r.db.QueryRow(ctx, query, portfolioID, symbol).Scan(
		&p.ID, &p.PortfolioID, &p.Symbol, &p.Quantity, &p.AvgBuyPrice, &p.Sector, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query position: %w", err)
	}
	return p, nil
}

// UpsertPosition writes the running position state for a symbol.
func (r *Repository) UpsertPosition(ctx context.Context, portfolioID uuid.UUID, symbol string, quantity, avgBuyPrice float64, sector string) error {
	query := `
		INSERT INTO positions (id, portfolio_id, symbol, quantity, avg_buy_price, sector, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (portfolio_id, symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_buy_price = EXCLUDED.avg_buy_price,
			sector = COALESCE(NULLIF(EXCLUDED.sector, ''), positions.sector),
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, uuid.New(), portfolioID, symbol, quantity, avgBuyPrice, sector)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// DeletePosition removes a closed-out position.
func (r *Repository) DeletePosition(ctx context.Context, portfolioID uuid.UUID, symbol string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM positions WHERE portfolio_id = $1 AND symbol = $2`, portfolioID, symbol)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	return nil
}

// InsertTransaction appends one immutable ledger entry.
func (r *Repository) InsertTransaction(ctx context.Context, tx *Transaction) error {
	query := `
		INSERT INTO transactions (id, portfolio_id, symbol, side, quantity, price, fee, trade_date, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		tx.ID, tx.PortfolioID, tx.Symbol, tx.Side, tx.Quantity, tx.Price, tx.Fee, tx.TradeDate, tx.Note,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the ledger in FIFO order. The (trade_date,
// created_at) ordering is a correctness requirement for lot matching.
func (r *Repository) ListTransactions(ctx context.Context, portfolioID uuid.UUID) ([]Transaction, error) {
	query := `
		SELECT id, portfolio_id, symbol, side, quantity, price, fee, trade_date, COALESCE(note, ''), created_at
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY trade_date ASC, created_at ASC
	`

	rows, err := r.db.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.PortfolioID, &tx.Symbol, &tx.Side, &tx.Quantity, &tx.Price, &tx.Fee, &tx.TradeDate, &tx.Note, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
