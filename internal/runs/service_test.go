package runs

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/steepline/steepline/internal/ids"
	"github.com/steepline/steepline/internal/spots"
	"github.com/steepline/steepline/internal/users"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T, name string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&users.User{}, &spots.Spot{}, &Run{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, clock func() time.Time) *Service {
	t.Helper()

	if clock == nil {
		clock = time.Now
	}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    clock,
		IDs:      ids.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func seedUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()

	user := users.User{
		ID:              id,
		Name:            "Rider " + id,
		Email:           id + "@example.com",
		AuthProvider:    "google",
		AuthProviderID:  "sub-" + id,
		IsPublicProfile: true,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func seedSpot(t *testing.T, db *gorm.DB, id, creatorID string, distance float64) {
	t.Helper()

	spot := spots.Spot{
		ID:             id,
		Name:           "Spot " + id,
		DistanceMeters: distance,
		CreatorUserID:  &creatorID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.Create(&spot).Error; err != nil {
		t.Fatalf("failed to seed spot: %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	db := newTestDatabase(t, "runs_create_validation")
	service := newTestService(t, db, nil)
	ctx := context.Background()
	seedUser(t, db, "rider-1")
	seedSpot(t, db, "spot-1", "rider-1", 500)

	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: " ", NumberOfRuns: 3}); !errors.Is(err, ErrMissingSpotID) {
		t.Fatalf("expected ErrMissingSpotID, got %v", err)
	}
	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: "spot-1", NumberOfRuns: 0}); !errors.Is(err, ErrInvalidLapCount) {
		t.Fatalf("expected ErrInvalidLapCount for zero laps, got %v", err)
	}
	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: "spot-1", NumberOfRuns: -2}); !errors.Is(err, ErrInvalidLapCount) {
		t.Fatalf("expected ErrInvalidLapCount for negative laps, got %v", err)
	}
	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: "no-such-spot", NumberOfRuns: 3}); !errors.Is(err, ErrSpotNotFound) {
		t.Fatalf("expected ErrSpotNotFound, got %v", err)
	}
}

func TestCreateDefaultsDateLoggedToNow(t *testing.T) {
	db := newTestDatabase(t, "runs_default_date")
	fixedNow := time.Date(2026, time.July, 4, 18, 30, 0, 0, time.UTC)
	service := newTestService(t, db, func() time.Time { return fixedNow })
	ctx := context.Background()
	seedUser(t, db, "rider-1")
	seedSpot(t, db, "spot-1", "rider-1", 500)

	run, err := service.Create(ctx, "rider-1", NewRun{SpotID: "spot-1", NumberOfRuns: 4})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if !run.DateLogged.Equal(fixedNow) {
		t.Fatalf("expected date logged to default to clock time, got %v", run.DateLogged)
	}

	backdated := time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC)
	run, err = service.Create(ctx, "rider-1", NewRun{SpotID: "spot-1", NumberOfRuns: 2, DateLogged: &backdated})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if !run.DateLogged.Equal(backdated) {
		t.Fatalf("expected explicit date logged to be honored, got %v", run.DateLogged)
	}
}

func TestListForUserOrdersBySessionDate(t *testing.T) {
	db := newTestDatabase(t, "runs_list_order")
	service := newTestService(t, db, nil)
	ctx := context.Background()
	seedUser(t, db, "rider-1")
	seedUser(t, db, "rider-2")
	seedSpot(t, db, "spot-1", "rider-1", 850.5)

	first := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, time.March, 8, 10, 0, 0, 0, time.UTC)

	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: "spot-1", NumberOfRuns: 3, DateLogged: &first}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: "spot-1", NumberOfRuns: 5, DateLogged: &second}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := service.Create(ctx, "rider-2", NewRun{SpotID: "spot-1", NumberOfRuns: 7, DateLogged: &second}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	details, err := service.ListForUser(ctx, "rider-1")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected only the caller's runs, got %d rows", len(details))
	}
	if details[0].NumberOfRuns != 5 || details[1].NumberOfRuns != 3 {
		t.Fatalf("expected most recent session first, got %d then %d", details[0].NumberOfRuns, details[1].NumberOfRuns)
	}
	if details[0].SpotName != "Spot spot-1" {
		t.Fatalf("expected spot name joined in, got %s", details[0].SpotName)
	}
	if details[0].SpotDistance != 850.5 {
		t.Fatalf("expected spot distance joined in, got %f", details[0].SpotDistance)
	}
}

func TestDeletingSpotRemovesItsRuns(t *testing.T) {
	db := newTestDatabase(t, "runs_spot_cascade")
	service := newTestService(t, db, nil)
	ctx := context.Background()
	seedUser(t, db, "rider-1")
	seedSpot(t, db, "spot-1", "rider-1", 500)
	seedSpot(t, db, "spot-2", "rider-1", 300)

	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: "spot-1", NumberOfRuns: 3}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := service.Create(ctx, "rider-1", NewRun{SpotID: "spot-2", NumberOfRuns: 2}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	spotsService, err := spots.NewService(spots.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		IDs:      ids.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to construct spot service: %v", err)
	}
	if err := spotsService.Delete(ctx, "spot-1", "rider-1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	details, err := service.ListForUser(ctx, "rider-1")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected runs at the deleted spot to be removed, got %d rows", len(details))
	}
	if details[0].SpotID != "spot-2" {
		t.Fatalf("expected surviving run to belong to spot-2, got %s", details[0].SpotID)
	}
}
