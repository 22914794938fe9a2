package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steepline/steepline/internal/ids"
	"github.com/steepline/steepline/internal/spots"
	"gorm.io/gorm"
)

var (
	// ErrMissingSpotID indicates a run submitted without a spot reference.
	ErrMissingSpotID = errors.New("runs: spot id is required")
	// ErrInvalidLapCount indicates a non-positive number of runs.
	ErrInvalidLapCount = errors.New("runs: number of runs must be positive")
	// ErrSpotNotFound indicates the referenced spot does not exist.
	ErrSpotNotFound = errors.New("runs: spot not found")
)

// ServiceConfig describes the dependencies required for run logging.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	IDs      ids.Provider
}

// Service manages logged runs.
type Service struct {
	db  *gorm.DB
	now func() time.Time
	ids ids.Provider
}

// NewService constructs the run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("runs: database connection required")
	}
	if cfg.IDs == nil {
		return nil, fmt.Errorf("runs: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:  cfg.Database,
		now: clock,
		ids: cfg.IDs,
	}, nil
}

// NewRun is the input for logging a session. DateLogged defaults to now.
type NewRun struct {
	SpotID       string
	NumberOfRuns int
	Notes        *string
	DateLogged   *time.Time
}

// Create logs a run for the given user after checking the spot exists.
func (s *Service) Create(ctx context.Context, userID string, input NewRun) (Run, error) {
	if strings.TrimSpace(input.SpotID) == "" {
		return Run{}, ErrMissingSpotID
	}
	if input.NumberOfRuns <= 0 {
		return Run{}, ErrInvalidLapCount
	}

	var spot spots.Spot
	err := s.db.WithContext(ctx).Select("id").Take(&spot, "id = ?", input.SpotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Run{}, fmt.Errorf("%w: %s", ErrSpotNotFound, input.SpotID)
	}
	if err != nil {
		return Run{}, err
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return Run{}, err
	}

	dateLogged := s.now().UTC()
	if input.DateLogged != nil {
		dateLogged = input.DateLogged.UTC()
	}

	run := Run{
		ID:           runID,
		SpotID:       input.SpotID,
		UserID:       userID,
		NumberOfRuns: input.NumberOfRuns,
		Notes:        input.Notes,
		DateLogged:   dateLogged,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListForUser returns the user's runs, most recent session first, with spot
// names and lap distances joined in.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]RunDetail, error) {
	var details []RunDetail
	err := s.db.WithContext(ctx).
		Table("runs").
		Select("runs.id, runs.spot_id, runs.user_id, runs.number_of_runs, runs.notes, "+
			"runs.date_logged, runs.created_at, spots.name AS spot_name, spots.distance_meters AS spot_distance").
		Joins("JOIN spots ON runs.spot_id = spots.id").
		Where("runs.user_id = ?", userID).
		Order("runs.date_logged DESC").
		Scan(&details).
		Error
	if err != nil {
		return nil, err
	}
	return details, nil
}
