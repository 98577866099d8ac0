package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type reportScenario struct {
	f       *fixture
	reports *ReportService
	ana     domain.Actor
	sam     domain.Actor
	kim     domain.Actor
	admin   domain.Actor
}

// newReportScenario leaves ana with one in-progress and one closed ticket
// handled by sam, and bob with one open unassigned ticket.
func newReportScenario(t *testing.T) *reportScenario {
	t.Helper()
	f := newFixture(t, defaultPolicy())
	s := &reportScenario{
		f:     f,
		ana:   f.user(t, "ana", domain.RoleClient),
		sam:   f.user(t, "sam", domain.RoleSupport),
		kim:   f.user(t, "kim", domain.RoleSupport),
		admin: f.user(t, "root", domain.RoleAdmin),
	}
	bob := f.user(t, "bob", domain.RoleClient)
	s.reports = NewReportService(ReportDependencies{Store: f.store, Clock: f.clock.Now})

	ctx := context.Background()
	first := f.ticket(t, s.ana, "first")
	second := f.ticket(t, s.ana, "second")
	f.ticket(t, bob, "third")

	_, err := f.tickets.UpdateTicket(ctx, s.sam, first.ID, TicketUpdateInput{Status: statusPtr(domain.TicketStatusInProgress)})
	require.NoError(t, err)
	_, err = f.tickets.UpdateTicket(ctx, s.sam, second.ID, TicketUpdateInput{Status: statusPtr(domain.TicketStatusClosed)})
	require.NoError(t, err)
	return s
}

func TestAdminReport(t *testing.T) {
	s := newReportScenario(t)

	report, err := s.reports.Generate(context.Background(), s.admin)
	require.NoError(t, err)
	require.NotNil(t, report.Admin)
	assert.Nil(t, report.Support)

	assert.Equal(t, domain.StatusCounts{Open: 1, InProgress: 1, Closed: 1, Total: 3}, report.Summary)
	assert.Equal(t, 1, report.Admin.Unassigned)
	assert.Equal(t, 3, report.Admin.CreatedToday)
	assert.Equal(t, 3, report.Admin.CreatedThisWeek)
	assert.Equal(t, 3, report.Admin.CreatedThisMonth)
	assert.Equal(t, 2, report.Admin.RecentActive)
	assert.Equal(t, 33, report.Admin.ResolutionRate)
	assert.Equal(t, 2, report.Admin.Workload)
	// second was created at 09:01 and closed at 09:03.
	assert.InDelta(t, 0.03, report.Admin.AvgResolutionHours, 0.001)

	roles := map[domain.Role]int{}
	for _, rc := range report.Admin.UsersByRole {
		roles[rc.Role] = rc.Count
	}
	assert.Equal(t, map[domain.Role]int{domain.RoleClient: 2, domain.RoleSupport: 2, domain.RoleAdmin: 1}, roles)

	require.NotEmpty(t, report.Admin.TopClients)
	assert.Equal(t, "ana", report.Admin.TopClients[0].Name)
	assert.Equal(t, 2, report.Admin.TopClients[0].Tickets)

	require.NotEmpty(t, report.Admin.SupportActivity)
	assert.Equal(t, "sam", report.Admin.SupportActivity[0].Name)
	assert.Equal(t, 2, report.Admin.SupportActivity[0].Tickets)

	require.Len(t, report.Admin.DailyTrend, 7)
	assert.Equal(t, 3, report.Admin.DailyTrend[6].Tickets)
	assert.Equal(t, 0, report.Admin.DailyTrend[0].Tickets)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), report.Admin.DailyTrend[6].Day)
}

func TestSupportReportIsScopedToAgent(t *testing.T) {
	s := newReportScenario(t)
	ctx := context.Background()

	report, err := s.reports.Generate(ctx, s.sam)
	require.NoError(t, err)
	require.NotNil(t, report.Support)
	assert.Nil(t, report.Admin)
	assert.Equal(t, domain.StatusCounts{InProgress: 1, Closed: 1, Total: 2}, report.Summary)
	assert.Equal(t, 2, report.Support.AssignedToday)
	assert.Equal(t, 1, report.Support.ClosedToday)
	assert.Equal(t, 50, report.Support.Efficiency)
	assert.Equal(t, 1, report.Support.Workload)

	idle, err := s.reports.Generate(ctx, s.kim)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCounts{}, idle.Summary)
	assert.Equal(t, 0, idle.Support.Efficiency)
}

func TestClientCannotSeeReports(t *testing.T) {
	s := newReportScenario(t)

	_, err := s.reports.Generate(context.Background(), s.ana)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestWindowsAt(t *testing.T) {
	// Tuesday
	w := windowsAt(time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), w.today)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), w.week)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), w.month)
	assert.Equal(t, time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC), w.lastDay)
}

func TestAverageHoursAndPercent(t *testing.T) {
	assert.Equal(t, 0.0, averageHours(nil))
	assert.Equal(t, 1.5, averageHours([]time.Duration{time.Hour, 2 * time.Hour}))
	assert.Equal(t, 0, percent(3, 0))
	assert.Equal(t, 67, percent(2, 3))
}
