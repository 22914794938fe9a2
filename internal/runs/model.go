package runs

import (
	"time"

	"github.com/steepline/steepline/internal/spots"
	"github.com/steepline/steepline/internal/users"
)

// Run is a logged session of laps by a user at a spot. Runs are owned by
// their user and spot: deleting either removes the run.
type Run struct {
	ID           string      `gorm:"column:id;primaryKey;size:36;not null"`
	SpotID       string      `gorm:"column:spot_id;size:36;not null;index:idx_runs_spot_id"`
	UserID       string      `gorm:"column:user_id;size:36;not null;index:idx_runs_user_id"`
	NumberOfRuns int         `gorm:"column:number_of_runs;not null"`
	Notes        *string     `gorm:"column:notes;type:text"`
	DateLogged   time.Time   `gorm:"column:date_logged;not null;index:idx_runs_date_logged"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	Spot         *spots.Spot `gorm:"foreignKey:SpotID;constraint:OnDelete:CASCADE"`
	User         *users.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (Run) TableName() string {
	return "runs"
}

// RunDetail is the read model for a rider's run history, joined with the
// spot's name and lap distance.
type RunDetail struct {
	ID           string    `gorm:"column:id"`
	SpotID       string    `gorm:"column:spot_id"`
	UserID       string    `gorm:"column:user_id"`
	NumberOfRuns int       `gorm:"column:number_of_runs"`
	Notes        *string   `gorm:"column:notes"`
	DateLogged   time.Time `gorm:"column:date_logged"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	SpotName     string    `gorm:"column:spot_name"`
	SpotDistance float64   `gorm:"column:spot_distance"`
}
