package models

import "time"

// TrackingSequence backs carrier-scoped tracking-number generation with an
// atomically incremented counter row per carrier.
type TrackingSequence struct {
	Carrier   string    `gorm:"column:carrier;primaryKey"`
	NextSeq   int64     `gorm:"column:next_seq;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
