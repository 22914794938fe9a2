package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/steepline/steepline/internal/ids"
	"gorm.io/gorm"
)

var (
	// ErrInvalidIdentity indicates the login assertion was missing a required field.
	ErrInvalidIdentity = errors.New("users: invalid identity")
	// ErrUnknownProvider indicates an auth provider outside the allow-list.
	ErrUnknownProvider = errors.New("users: unknown auth provider")
	// ErrUserNotFound indicates no user row exists for the given id.
	ErrUserNotFound = errors.New("users: user not found")
)

// The original service trusts the claimed provider identity without
// verification, so at least the provider name is pinned to a closed set.
var allowedProviders = map[string]struct{}{
	"google":   {},
	"facebook": {},
}

// LoginIdentity is the self-reported provider assertion presented at login.
type LoginIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
}

// ServiceConfig describes the dependencies required for account resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	IDs      ids.Provider
}

// Service manages rider accounts keyed by their provider identity.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	ids   ids.Provider
	cache sync.Map
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	if cfg.IDs == nil {
		return nil, fmt.Errorf("users: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:    cfg.Database,
		now:   clock,
		ids:   cfg.IDs,
		cache: sync.Map{},
	}, nil
}

// FindOrCreate returns the user id for the provided login identity, creating
// the account on first login with a given provider+subject pair.
func (s *Service) FindOrCreate(ctx context.Context, identity LoginIdentity) (string, error) {
	provider := strings.ToLower(normalize(identity.Provider))
	providerID := normalize(identity.ProviderID)
	email := normalize(identity.Email)
	name := normalize(identity.Name)

	if provider == "" || providerID == "" || email == "" || name == "" {
		return "", ErrInvalidIdentity
	}
	if _, ok := allowedProviders[provider]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	cacheKey := provider + ":" + providerID
	if cachedIdentifier, ok := s.cache.Load(cacheKey); ok {
		if userID, ok := cachedIdentifier.(string); ok {
			return userID, nil
		}
	}

	var user User
	err := s.db.WithContext(ctx).
		Where("auth_provider = ? AND auth_provider_id = ?", provider, providerID).
		First(&user).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		userID, idErr := s.ids.NewID()
		if idErr != nil {
			return "", idErr
		}
		user = User{
			ID:              userID,
			Name:            name,
			Email:           email,
			AuthProvider:    provider,
			AuthProviderID:  providerID,
			IsPublicProfile: true,
			CreatedAt:       s.now().UTC(),
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	s.cache.Store(cacheKey, user.ID)
	return user.ID, nil
}

// GetByID loads a user profile by its canonical id.
func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// SetProfileVisibility toggles whether the user appears on public leaderboards.
func (s *Service) SetProfileVisibility(ctx context.Context, userID string, public bool) error {
	return s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Update("is_public_profile", public).
		Error
}
