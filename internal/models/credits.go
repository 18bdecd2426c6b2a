package models

import (
	"encoding/json"
	"time"
)

// UserCredits is the per-user daily allowance row. An entry whose LastReset
// falls on a previous calendar day is stale and is replaced with a fresh
// allotment before any read or decrement.
type UserCredits struct {
	UserID    string    `gorm:"type:text;primaryKey" json:"-"`  // Owning user id.
	Video     int       `gorm:"not null" json:"video"`          // Remaining video generations today.
	Audio     int       `gorm:"not null" json:"audio"`          // Remaining audio generations today.
	LastReset time.Time `gorm:"not null" json:"-"`              // Instant of the last allotment.
}

// creditsJSON is the wire form of UserCredits used by the backup document
// and the HTTP surface, with lastReset as an RFC 3339 string.
type creditsJSON struct {
	Video     int    `json:"video"`
	Audio     int    `json:"audio"`
	LastReset string `json:"lastReset"`
}

// MarshalJSON encodes the row in the product's wire shape.
func (c UserCredits) MarshalJSON() ([]byte, error) {
	return json.Marshal(creditsJSON{
		Video:     c.Video,
		Audio:     c.Audio,
		LastReset: c.LastReset.Format(time.RFC3339Nano),
	})
}

// UnmarshalJSON accepts the product's wire shape. A missing or unparseable
// lastReset degrades to the zero time, which reads as stale and triggers a
// fresh allotment on the next load.
func (c *UserCredits) UnmarshalJSON(data []byte) error {
	var w creditsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	reset, errParse := time.Parse(time.RFC3339Nano, w.LastReset)
	if errParse != nil {
		reset = time.Time{}
	}
	c.Video = w.Video
	c.Audio = w.Audio
	c.LastReset = reset
	return nil
}
