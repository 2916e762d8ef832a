package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an alert does not exist or belongs to
// another user.
var ErrNotFound = errors.New("alerts: not found")

// Repository handles alert persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts an active alert and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, userID, symbol string, targetPrice float64, above bool) (*Alert, error) {
	query := `
		INSERT INTO alerts (id, user_id, symbol, target_price, above, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW())
		RETURNING id, user_id, symbol, target_price, above, is_active, created_at, triggered_at
	`

	a := &Alert{}
	err := r.db.QueryRow(ctx, query, uuid.New(), userID, strings.ToUpper(strings.TrimSpace(symbol)), targetPrice, above).Scan(
		&a.ID, &a.UserID, &a.Symbol, &a.TargetPrice, &a.Above, &a.IsActive, &a.CreatedAt, &a.TriggeredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return a, nil
}

// List returns the user's alerts, newest first.
func (r *Repository) List(ctx context.Context, userID string) ([]Alert, error) {
	query := `
		SELECT id, user_id, symbol, target_price, above, is_active, created_at, triggered_at
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryAlerts(ctx, query, userID)
}

// ListActive returns a user's untriggered alerts.
func (r *Repository) ListActive(ctx context.Context, userID string) ([]Alert, error) {
	query := `
		SELECT id, user_id, symbol, target_price, above, is_active, created_at, triggered_at
		FROM alerts
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC
	`
	return r.queryAlerts(ctx, query, userID)
}

// ListAllActive returns every untriggered alert across users for the sweep.
func (r *Repository) ListAllActive(ctx context.Context) ([]Alert, error) {
	query := `
		SELECT id, user_id, symbol, target_price, above, is_active, created_at, triggered_at
		FROM alerts
		WHERE is_active
		ORDER BY symbol
	`
	return r.queryAlerts(ctx, query)
}

// Delete removes an alert scoped to its owner.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkTriggered stamps triggered_at and deactivates the alert so it fires
// exactly once.
func (r *Repository) MarkTriggered(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE alerts
		SET is_active = FALSE, triggered_at = NOW()
		WHERE id = $1 AND is_active
	`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark alert triggered: %w", err)
	}
	return nil
}

func (r *Repository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]Alert, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Symbol, &a.TargetPrice, &a.Above, &a.IsActive, &a.CreatedAt, &a.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
