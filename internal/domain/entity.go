package domain

import "time"

// Quote is a persisted top-of-book observation, one row per venue per
// second. It backs spread-series warmup across restarts.
type Quote struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	VenueID   string  `gorm:"index:idx_venue_ts" json:"venue_id"`
	Timestamp int64   `gorm:"index:idx_venue_ts" json:"timestamp"` // unix seconds
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	CreatedAt time.Time
}
