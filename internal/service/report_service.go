package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

const (
	adminReportCacheKey   = "reports:admin"
	resolutionWindow      = 30 * 24 * time.Hour
	resolutionSampleLimit = 100
	topClientsLimit       = 5
	trendDays             = 7
)

// ReportService computes role-scoped ticket aggregates.
type ReportService struct {
	store  repository.Store
	cache  *cache.Client
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	Store    repository.Store
	Cache    *cache.Client
	CacheTTL time.Duration
	Clock    func() time.Time
	Logger   *zap.Logger
}

// NewReportService builds the service. Cache may be nil.
func NewReportService(deps ReportDependencies) *ReportService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{store: deps.Store, cache: deps.Cache, ttl: deps.CacheTTL, now: clock, logger: logger}
}

// Generate builds the report for the actor. Support agents only see their
// own tickets; admins see everything plus organisation-wide extras.
func (s *ReportService) Generate(ctx context.Context, actor domain.Actor) (*domain.Report, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return s.adminReport(ctx, actor)
	case domain.RoleSupport:
		return s.supportReport(ctx, actor)
	}
	return nil, apperrors.NewForbidden("reports are available to support and admin users")
}

func (s *ReportService) adminReport(ctx context.Context, actor domain.Actor) (*domain.Report, error) {
	if s.ttl > 0 {
		var cached domain.Report
		if s.cache.GetJSON(ctx, adminReportCacheKey, &cached) {
			cached.UserID = actor.UserID
			return &cached, nil
		}
	}

	report, err := s.computeAdmin(ctx, actor)
	if err != nil {
		return nil, mapRepoError(err, "report")
	}

	if s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, adminReportCacheKey, report, s.ttl); err != nil {
			s.logger.Warn("cache admin report", zap.Error(err))
		}
	}
	return report, nil
}

func (s *ReportService) computeAdmin(ctx context.Context, actor domain.Actor) (*domain.Report, error) {
	reports := s.store.Reports()
	now := s.now()
	w := windowsAt(now)

	summary, err := s.statusCounts(ctx, nil)
	if err != nil {
		return nil, err
	}

	admin := &domain.AdminReport{}
	counts := []struct {
		dst    *int
		filter repository.TicketCountFilter
	}{
		{&admin.Unassigned, repository.TicketCountFilter{Unassigned: true}},
		{&admin.CreatedToday, repository.TicketCountFilter{CreatedFrom: &w.today}},
		{&admin.CreatedThisWeek, repository.TicketCountFilter{CreatedFrom: &w.week}},
		{&admin.CreatedThisMonth, repository.TicketCountFilter{CreatedFrom: &w.month}},
		{&admin.RecentActive, repository.TicketCountFilter{
			CreatedFrom: &w.lastDay,
			Statuses:    []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
		}},
	}
	for _, c := range counts {
		if *c.dst, err = reports.CountTickets(ctx, c.filter); err != nil {
			return nil, err
		}
	}

	if admin.UsersByRole, err = reports.UsersByRole(ctx); err != nil {
		return nil, err
	}

	durations, err := reports.ClosedDurations(ctx, now.Add(-resolutionWindow), resolutionSampleLimit)
	if err != nil {
		return nil, err
	}
	admin.AvgResolutionHours = averageHours(durations)

	if admin.SupportActivity, err = reports.SupportWorkload(ctx, w.month); err != nil {
		return nil, err
	}
	if admin.TopClients, err = reports.TopClients(ctx, topClientsLimit); err != nil {
		return nil, err
	}

	for i := trendDays - 1; i >= 0; i-- {
		day := w.today.AddDate(0, 0, -i)
		next := day.AddDate(0, 0, 1)
		n, err := reports.CountTickets(ctx, repository.TicketCountFilter{CreatedFrom: &day, CreatedTo: &next})
		if err != nil {
			return nil, err
		}
		admin.DailyTrend = append(admin.DailyTrend, domain.DailyCount{Day: day, Tickets: n})
	}

	admin.ResolutionRate = percent(summary.Closed, summary.Total)
	admin.Workload = summary.Open + summary.InProgress

	return &domain.Report{
		Role:        actor.Role,
		UserID:      actor.UserID,
		GeneratedAt: now,
		Summary:     summary,
		Admin:       admin,
	}, nil
}

func (s *ReportService) supportReport(ctx context.Context, actor domain.Actor) (*domain.Report, error) {
	reports := s.store.Reports()
	now := s.now()
	w := windowsAt(now)
	me := &actor.UserID

	summary, err := s.statusCounts(ctx, me)
	if err != nil {
		return nil, mapRepoError(err, "report")
	}

	support := &domain.SupportReport{}
	if support.AssignedToday, err = reports.CountTickets(ctx, repository.TicketCountFilter{SupportID: me, CreatedFrom: &w.today}); err != nil {
		return nil, mapRepoError(err, "report")
	}
	if support.ClosedToday, err = reports.CountTickets(ctx, repository.TicketCountFilter{
		SupportID:   me,
		Statuses:    []domain.TicketStatus{domain.TicketStatusClosed},
		UpdatedFrom: &w.today,
	}); err != nil {
		return nil, mapRepoError(err, "report")
	}
	lastWeek := now.Add(-7 * 24 * time.Hour)
	weekly, err := reports.CountTickets(ctx, repository.TicketCountFilter{SupportID: me, CreatedFrom: &lastWeek})
	if err != nil {
		return nil, mapRepoError(err, "report")
	}

	support.DailyAverage = int(math.Round(float64(weekly) / 7))
	support.Workload = summary.Open + summary.InProgress
	support.Efficiency = percent(support.ClosedToday, support.AssignedToday)

	return &domain.Report{
		Role:        actor.Role,
		UserID:      actor.UserID,
		GeneratedAt: now,
		Summary:     summary,
		Support:     support,
	}, nil
}

func (s *ReportService) statusCounts(ctx context.Context, supportID *int64) (domain.StatusCounts, error) {
	var out domain.StatusCounts
	reports := s.store.Reports()
	targets := map[domain.TicketStatus]*int{
		domain.TicketStatusOpen:       &out.Open,
		domain.TicketStatusInProgress: &out.InProgress,
		domain.TicketStatusClosed:     &out.Closed,
	}
	for status, dst := range targets {
		n, err := reports.CountTickets(ctx, repository.TicketCountFilter{SupportID: supportID, Statuses: []domain.TicketStatus{status}})
		if err != nil {
			return out, err
		}
		*dst = n
	}
	total, err := reports.CountTickets(ctx, repository.TicketCountFilter{SupportID: supportID})
	if err != nil {
		return out, err
	}
	out.Total = total
	return out, nil
}

type windows struct {
	today   time.Time
	week    time.Time
	month   time.Time
	lastDay time.Time
}

// windowsAt computes calendar boundaries in now's location. Weeks start on Sunday.
func windowsAt(now time.Time) windows {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return windows{
		today:   today,
		week:    today.AddDate(0, 0, -int(today.Weekday())),
		month:   time.Date(y, m, 1, 0, 0, 0, 0, now.Location()),
		lastDay: now.Add(-24 * time.Hour),
	}
}

func averageHours(durations []time.Duration) float64 {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	hours := total.Hours() / float64(len(durations))
	return math.Round(hours*100) / 100
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
