package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingUserID   = errors.New("user identifier is required")
	noOpLogger         = zap.NewNop()
)

// ServiceError carries an operation-scoped error code for the HTTP layer.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew  = "stats.service.new"
	opUserStats   = "stats.user_stats"
	opLeaderboard = "stats.leaderboard"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies of the statistics service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service computes per-rider activity summaries and the global leaderboard.
// Nothing is cached: every call is a point-in-time read against the store.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the statistics service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		clock:  clock,
		logger: logger,
	}, nil
}

// yearBounds returns the inclusive UTC bounds of the clock's current
// calendar year. Year boundaries are a fixed UTC convention.
func yearBounds(now time.Time) (time.Time, time.Time) {
	year := now.UTC().Year()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return start, end
}

// UserStats computes the four activity metrics for one rider. An unknown
// user id yields all-zero metrics rather than an error.
func (s *Service) UserStats(ctx context.Context, userID string) (UserStats, error) {
	if s.db == nil {
		s.logError(opUserStats, "missing_database", errMissingDatabase)
		return UserStats{}, newServiceError(opUserStats, "missing_database", errMissingDatabase)
	}
	if strings.TrimSpace(userID) == "" {
		s.logError(opUserStats, "missing_user_id", errMissingUserID)
		return UserStats{}, newServiceError(opUserStats, "missing_user_id", errMissingUserID)
	}

	yearStart, yearEnd := yearBounds(s.clock())

	var thisYear struct {
		Total int64 `gorm:"column:total"`
	}
	err := s.db.WithContext(ctx).
		Table("runs").
		Select("COALESCE(SUM(number_of_runs), 0) AS total").
		Where("user_id = ? AND date_logged >= ? AND date_logged <= ?", userID, yearStart, yearEnd).
		Scan(&thisYear).
		Error
	if err != nil {
		s.logError(opUserStats, "year_query_failed", err, zap.String("user_id", userID))
		return UserStats{}, newServiceError(opUserStats, "year_query_failed", err)
	}

	var lifetime struct {
		Total int64 `gorm:"column:total"`
	}
	err = s.db.WithContext(ctx).
		Table("runs").
		Select("COALESCE(SUM(number_of_runs), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&lifetime).
		Error
	if err != nil {
		s.logError(opUserStats, "lifetime_query_failed", err, zap.String("user_id", userID))
		return UserStats{}, newServiceError(opUserStats, "lifetime_query_failed", err)
	}

	var distance struct {
		TotalLaps     int64   `gorm:"column:total_laps"`
		TotalDistance float64 `gorm:"column:total_distance"`
	}
	err = s.db.WithContext(ctx).
		Table("runs").
		Select("COALESCE(SUM(runs.number_of_runs), 0) AS total_laps, "+
			"COALESCE(SUM(runs.number_of_runs * spots.distance_meters), 0) AS total_distance").
		Joins("JOIN spots ON runs.spot_id = spots.id").
		Where("runs.user_id = ?", userID).
		Scan(&distance).
		Error
	if err != nil {
		s.logError(opUserStats, "distance_query_failed", err, zap.String("user_id", userID))
		return UserStats{}, newServiceError(opUserStats, "distance_query_failed", err)
	}

	return UserStats{
		UserID:        userID,
		RunsThisYear:  thisYear.Total,
		LifetimeRuns:  lifetime.Total,
		TotalDistance: distance.TotalDistance,
		TotalLaps:     distance.TotalLaps,
	}, nil
}

type leaderboardRow struct {
	UserID        string  `gorm:"column:user_id"`
	UserName      string  `gorm:"column:user_name"`
	RunsThisYear  int64   `gorm:"column:runs_this_year"`
	LifetimeRuns  int64   `gorm:"column:lifetime_runs"`
	TotalDistance float64 `gorm:"column:total_distance"`
	TotalLaps     int64   `gorm:"column:total_laps"`
}

const (
	exprRunsThisYear  = "COALESCE(SUM(CASE WHEN runs.date_logged >= ? AND runs.date_logged <= ? THEN runs.number_of_runs ELSE 0 END), 0)"
	exprLifetimeRuns  = "COALESCE(SUM(runs.number_of_runs), 0)"
	exprTotalDistance = "COALESCE(SUM(runs.number_of_runs * spots.distance_meters), 0)"
)

// Leaderboard ranks public-profile riders by the selected metric. Riders
// whose selected metric is zero are excluded from that view. Ties break on
// user id ascending so the ordering is deterministic.
func (s *Service) Leaderboard(ctx context.Context, key SortKey, limit int) ([]LeaderboardEntry, error) {
	if s.db == nil {
		s.logError(opLeaderboard, "missing_database", errMissingDatabase)
		return nil, newServiceError(opLeaderboard, "missing_database", errMissingDatabase)
	}

	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	yearStart, yearEnd := yearBounds(s.clock())

	var havingExpr string
	var havingArgs []interface{}
	var orderAlias string
	switch key {
	case SortRunsThisYear:
		havingExpr = exprRunsThisYear + " > 0"
		havingArgs = []interface{}{yearStart, yearEnd}
		orderAlias = "runs_this_year"
	case SortLifetimeRuns:
		havingExpr = exprLifetimeRuns + " > 0"
		orderAlias = "lifetime_runs"
	case SortTotalDistance:
		havingExpr = exprTotalDistance + " > 0"
		orderAlias = "total_distance"
	case SortTotalLaps:
		havingExpr = exprLifetimeRuns + " > 0"
		orderAlias = "total_laps"
	default:
		s.logError(opLeaderboard, "unknown_sort_key", ErrUnknownSortKey, zap.String("type", string(key)))
		return nil, newServiceError(opLeaderboard, "unknown_sort_key", fmt.Errorf("%w: %s", ErrUnknownSortKey, key))
	}

	// One grouped pass over users⋈runs⋈spots computes all four metrics for
	// every entry regardless of the selected sort key.
	var rows []leaderboardRow
	err := s.db.WithContext(ctx).
		Table("users").
		Select("users.id AS user_id, users.name AS user_name, "+
			exprRunsThisYear+" AS runs_this_year, "+
			exprLifetimeRuns+" AS lifetime_runs, "+
			exprTotalDistance+" AS total_distance, "+
			exprLifetimeRuns+" AS total_laps",
			yearStart, yearEnd).
		Joins("LEFT JOIN runs ON users.id = runs.user_id").
		Joins("LEFT JOIN spots ON runs.spot_id = spots.id").
		Where("users.is_public_profile = ?", true).
		Group("users.id, users.name").
		Having(havingExpr, havingArgs...).
		Order(orderAlias + " DESC, users.id ASC").
		Limit(limit).
		Scan(&rows).
		Error
	if err != nil {
		s.logError(opLeaderboard, "query_failed", err, zap.String("type", string(key)))
		return nil, newServiceError(opLeaderboard, "query_failed", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for position, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:          position + 1,
			UserID:        row.UserID,
			UserName:      row.UserName,
			RunsThisYear:  row.RunsThisYear,
			LifetimeRuns:  row.LifetimeRuns,
			TotalDistance: row.TotalDistance,
			TotalLaps:     row.TotalLaps,
		})
	}
	return entries, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("stats service error", attrs...)
}
