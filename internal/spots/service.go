package spots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steepline/steepline/internal/ids"
	"gorm.io/gorm"
)

var (
	// ErrSpotNotFound indicates no spot row exists for the given id.
	ErrSpotNotFound = errors.New("spots: spot not found")
	// ErrNotCreator indicates the caller does not own the spot.
	ErrNotCreator = errors.New("spots: caller is not the spot creator")
	// ErrInvalidName indicates an empty spot name.
	ErrInvalidName = errors.New("spots: name is required")
	// ErrInvalidDistance indicates a non-positive lap distance.
	ErrInvalidDistance = errors.New("spots: distance must be positive")
	// ErrEmptyUpdate indicates a partial update with no fields set.
	ErrEmptyUpdate = errors.New("spots: no fields to update")
)

// ServiceConfig describes the dependencies required for spot management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	IDs      ids.Provider
}

// Service manages the catalog of downhill spots.
type Service struct {
	db  *gorm.DB
	now func() time.Time
	ids ids.Provider
}

// NewService constructs the spot service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("spots: database connection required")
	}
	if cfg.IDs == nil {
		return nil, fmt.Errorf("spots: id provider required")
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

const spotDetailColumns = "spots.id, spots.name, spots.distance_meters, spots.description, " +
	"spots.creator_user_id, spots.created_at, users.name AS creator_name"

// List returns every spot, newest first, with creator names joined in.
func (s *Service) List(ctx context.Context) ([]SpotDetail, error) {
	var details []SpotDetail
	err := s.db.WithContext(ctx).
		Table("spots").
		Select(spotDetailColumns).
		Joins("LEFT JOIN users ON spots.creator_user_id = users.id").
		Order("spots.created_at DESC").
		Scan(&details).
		Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

// Get returns a single spot by id with the creator name joined in.
func (s *Service) Get(ctx context.Context, spotID string) (SpotDetail, error) {
	var details []SpotDetail
	err := s.db.WithContext(ctx).
		Table("spots").
		Select(spotDetailColumns).
		Joins("LEFT JOIN users ON spots.creator_user_id = users.id").
		Where("spots.id = ?", spotID).
		Limit(1).
		Scan(&details).
		Error
	if err != nil {
		return SpotDetail{}, err
	}
	if len(details) == 0 {
		return SpotDetail{}, fmt.Errorf("%w: %s", ErrSpotNotFound, spotID)
	}
	return details[0], nil
}

// Create registers a new spot owned by the given user.
func (s *Service) Create(ctx context.Context, creatorUserID, name string, distanceMeters float64, description *string) (Spot, error) {
	if strings.TrimSpace(name) == "" {
		return Spot{}, ErrInvalidName
	}
	if distanceMeters <= 0 {
		return Spot{}, ErrInvalidDistance
	}

	spotID, err := s.ids.NewID()
	if err != nil {
		return Spot{}, err
	}

	spot := Spot{
		ID:             spotID,
		Name:           name,
		DistanceMeters: distanceMeters,
		Description:    emptyToNil(description),
		CreatorUserID:  &creatorUserID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&spot).Error; err != nil {
		return Spot{}, err
	}
	return spot, nil
}

// SpotPatch carries the optional fields of a partial spot update. Nil fields
// are left untouched.
type SpotPatch struct {
	Name           *string
	DistanceMeters *float64
	Description    *string
}

// Update applies a partial update to a spot. Only the creator may update.
func (s *Service) Update(ctx context.Context, spotID, callerUserID string, patch SpotPatch) (Spot, error) {
	spot, err := s.loadOwned(ctx, spotID, callerUserID)
	if err != nil {
		return Spot{}, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.DistanceMeters != nil {
		if *patch.DistanceMeters <= 0 {
			return Spot{}, ErrInvalidDistance
		}
		updates["distance_meters"] = *patch.DistanceMeters
	}
	if patch.Description != nil {
		updates["description"] = emptyToNil(patch.Description)
	}
	if len(updates) == 0 {
		return Spot{}, ErrEmptyUpdate
	}

	if err := s.db.WithContext(ctx).Model(&Spot{}).Where("id = ?", spot.ID).Updates(updates).Error; err != nil {
		return Spot{}, err
	}

	var updated Spot
	if err := s.db.WithContext(ctx).Take(&updated, "id = ?", spot.ID).Error; err != nil {
		return Spot{}, err
	}
	return updated, nil
}

// Delete removes a spot and its dependent runs. Only the creator may delete.
func (s *Service) Delete(ctx context.Context, spotID, callerUserID string) error {
	spot, err := s.loadOwned(ctx, spotID, callerUserID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Mirrors the runs FK cascade for stores that do not enforce it.
		if err := tx.Exec("DELETE FROM runs WHERE spot_id = ?", spot.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&Spot{}, "id = ?", spot.ID).Error
	})
}

func (s *Service) loadOwned(ctx context.Context, spotID, callerUserID string) (Spot, error) {
	var spot Spot
	err := s.db.WithContext(ctx).Take(&spot, "id = ?", spotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Spot{}, fmt.Errorf("%w: %s", ErrSpotNotFound, spotID)
	}
	if err != nil {
		return Spot{}, err
	}
	if spot.CreatorUserID == nil || *spot.CreatorUserID != callerUserID {
		return Spot{}, ErrNotCreator
	}
	return spot, nil
}

func emptyToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}
