package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type dashboardProgramCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardEventCounter interface {
	CountByStatus(ctx context.Context) (map[models.EventStatus]int, error)
	CountUpcoming(ctx context.Context) (int, error)
}

type dashboardLedgerCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardUserCounter interface {
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
}

type dashboardAttendanceCounter interface {
	CountByStatus(ctx context.Context) (map[models.AttendanceStatus]int, error)
}

type dashboardResultCounter interface {
	CountAnnouncedEvents(ctx context.Context) (int, error)
}

type dashboardNotificationCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

const dashboardCacheKey = "dash:summary"

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Programs      dashboardProgramCounter
	Events        dashboardEventCounter
	Registrations dashboardLedgerCounter
	Users         dashboardUserCounter
	Attendance    dashboardAttendanceCounter
	Results       dashboardResultCounter
	Notifications dashboardNotificationCounter
	Cache         dashboardCache
	Metrics       cacheRecorder
	Logger        *zap.Logger
	CacheTTL      time.Duration
}

// DashboardService composes the admin summary, caching the counters so
// repeated loads do not fan out into seven count queries.
type DashboardService struct {
	programs      dashboardProgramCounter
	events        dashboardEventCounter
	registrations dashboardLedgerCounter
	users         dashboardUserCounter
	attendance    dashboardAttendanceCounter
	results       dashboardResultCounter
	notifications dashboardNotificationCounter
	cache         dashboardCache
	metrics       cacheRecorder
	logger        *zap.Logger
	cacheTTL      time.Duration
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		programs:      params.Programs,
		events:        params.Events,
		registrations: params.Registrations,
		users:         params.Users,
		attendance:    params.Attendance,
		results:       params.Results,
		notifications: params.Notifications,
		cache:         params.Cache,
		metrics:       params.Metrics,
		logger:        logger,
		cacheTTL:      ttl,
	}
}

// Summary returns the campus counters and reports cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	if s.cache != nil {
		start := time.Now()
		var cached models.DashboardSummary
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			s.recordCache(true, time.Since(start))
			return &cached, true, nil
		}
		s.recordCache(false, time.Since(start))
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*models.DashboardSummary, error) {
	programs, err := s.programs.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count programs")
	}
	eventCounts, err := s.events.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count events")
	}
	upcoming, err := s.events.CountUpcoming(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count upcoming events")
	}
	registrations, err := s.registrations.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	roleCounts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	attendanceCounts, err := s.attendance.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	announcedSets, err := s.results.CountAnnouncedEvents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count announced results")
	}
	notifications, err := s.notifications.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}

	totalUsers := 0
	for _, count := range roleCounts {
		totalUsers += count
	}
	totalEvents := 0
	for _, count := range eventCounts {
		totalEvents += count
	}

	return &models.DashboardSummary{
		TotalPrograms:       programs,
		TotalEvents:         totalEvents,
		PendingEvents:       eventCounts[models.EventStatusPending],
		UpcomingEvents:      upcoming,
		TotalRegistrations:  registrations,
		TotalUsers:          totalUsers,
		TotalStudents:       roleCounts[models.RoleStudent],
		TotalTeachers:       roleCounts[models.RoleTeacher],
		PendingAttendance:   attendanceCounts[models.AttendanceStatusPending],
		ApprovedAttendance:  attendanceCounts[models.AttendanceStatusApproved],
		AnnouncedResultSets: announcedSets,
		ActiveNotifications: notifications,
	}, nil
}

func (s *DashboardService) recordCache(hit bool, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, duration)
	}
}
