// Package alerts persists price alerts and evaluates them against live
// quotes, both on demand and from the periodic sweep.
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Alert is a one-shot price threshold. Above watches for price >= target,
// otherwise price <= target. A fired alert records triggered_at and goes
// inactive.
type Alert struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"-"`
	Symbol      string     `json:"symbol"`
	TargetPrice float64    `json:"target_price"`
	Above       bool       `json:"above"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
}

// Trigger is one fired alert with the price that fired it.
type Trigger struct {
	AlertID      uuid.UUID `json:"alert_id"`
	Symbol       string    `json:"symbol"`
	TargetPrice  float64   `json:"target_price"`
	CurrentPrice float64   `json:"current_price"`
	Above        bool      `json:"above"`
	Notified     bool      `json:"notified"`
}
