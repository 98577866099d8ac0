package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

// ReportsHandler serves role-scoped reports.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Get GET /reports.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	report, err := h.reports.Generate(c.UserContext(), p.Actor())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, reportResponse(report))
}

func reportResponse(r *domain.Report) dto.ReportResponse {
	out := dto.ReportResponse{
		Role:        string(r.Role),
		UserID:      r.UserID,
		GeneratedAt: r.GeneratedAt,
		Summary: dto.StatusCounts{
			Open:       r.Summary.Open,
			InProgress: r.Summary.InProgress,
			Closed:     r.Summary.Closed,
			Total:      r.Summary.Total,
		},
	}

	if a := r.Admin; a != nil {
		admin := &dto.AdminReport{
			Unassigned:         a.Unassigned,
			CreatedToday:       a.CreatedToday,
			CreatedThisWeek:    a.CreatedThisWeek,
			CreatedThisMonth:   a.CreatedThisMonth,
			RecentActive:       a.RecentActive,
			AvgResolutionHours: a.AvgResolutionHours,
			ResolutionRate:     a.ResolutionRate,
			Workload:           a.Workload,
			UsersByRole:        []dto.RoleCount{},
			SupportActivity:    []dto.AgentWorkload{},
			TopClients:         []dto.ClientActivity{},
			DailyTrend:         []dto.DailyCount{},
		}
		for _, rc := range a.UsersByRole {
			admin.UsersByRole = append(admin.UsersByRole, dto.RoleCount{RoleID: rc.RoleID, Role: string(rc.Role), Count: rc.Count})
		}
		for _, w := range a.SupportActivity {
			admin.SupportActivity = append(admin.SupportActivity, dto.AgentWorkload(w))
		}
		for _, ca := range a.TopClients {
			admin.TopClients = append(admin.TopClients, dto.ClientActivity(ca))
		}
		for _, d := range a.DailyTrend {
			admin.DailyTrend = append(admin.DailyTrend, dto.DailyCount{Day: d.Day.Format("2006-01-02"), Tickets: d.Tickets})
		}
		out.Admin = admin
	}

	if s := r.Support; s != nil {
		support := dto.SupportReport(*s)
		out.Support = &support
	}
	return out
}
