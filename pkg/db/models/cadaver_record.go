package models

import (
	"time"

	"github.com/google/uuid"
)

// CadaverRecord carries fulfillment metadata for services that involve
// physical handling. The lifecycle treats it as opaque: it is linked back to
// its order when payment confirms and never interpreted beyond that.
type CadaverRecord struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              *uuid.UUID `gorm:"column:order_id;type:uuid;index"`
	FullName             string     `gorm:"column:full_name;not null"`
	DateOfBirth          *time.Time `gorm:"column:date_of_birth"`
	DateOfDeath          *time.Time `gorm:"column:date_of_death"`
	ReligiousAffiliation *string    `gorm:"column:religious_affiliation"`
	SpecialInstructions  *string    `gorm:"column:special_instructions"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
