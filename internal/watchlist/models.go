// Package watchlist persists user watchlists and serves their live quotes.
package watchlist

import (
	"time"

	"github.com/google/uuid"
)

// Watchlist is a named set of symbols a user tracks.
type Watchlist struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

// Item is one symbol on a watchlist. A symbol appears at most once per list.
type Item struct {
	ID          uuid.UUID `json:"id"`
	WatchlistID uuid.UUID `json:"-"`
	Symbol      string    `json:"symbol"`
	AddedAt     time.Time `json:"added_at"`
}
