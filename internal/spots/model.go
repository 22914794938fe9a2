package spots

import (
	"time"

	"github.com/steepline/steepline/internal/users"
)

// Spot is a named downhill location with a fixed per-lap distance in meters.
// The creator reference is weak: deleting the creator leaves the spot behind
// with a null creator.
type Spot struct {
	ID             string      `gorm:"column:id;primaryKey;size:36;not null"`
	Name           string      `gorm:"column:name;size:255;not null"`
	DistanceMeters float64     `gorm:"column:distance_meters;type:decimal(10,2);not null"`
	Description    *string     `gorm:"column:description;type:text"`
	CreatorUserID  *string     `gorm:"column:creator_user_id;size:36;index"`
	Creator        *users.User `gorm:"foreignKey:CreatorUserID;constraint:OnDelete:SET NULL"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Spot) TableName() string {
	return "spots"
}

// SpotDetail is the read model for spot listings, joined with the creator's
// display name.
type SpotDetail struct {
	ID             string    `gorm:"column:id"`
	Name           string    `gorm:"column:name"`
	DistanceMeters float64   `gorm:"column:distance_meters"`
	Description    *string   `gorm:"column:description"`
	CreatorUserID  *string   `gorm:"column:creator_user_id"`
	CreatorName    *string   `gorm:"column:creator_name"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}
