package dto

import "time"

// StatusCounts response.
type StatusCounts struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
	Total      int `json:"total"`
}

// ReportResponse is the role-scoped report. Exactly one of Admin or Support
// is set.
type ReportResponse struct {
	Role        string         `json:"role"`
	UserID      int64          `json:"userId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Summary     StatusCounts   `json:"summary"`
	Admin       *AdminReport   `json:"admin,omitempty"`
	Support     *SupportReport `json:"support,omitempty"`
}

// AdminReport carries organisation-wide aggregates.
type AdminReport struct {
	Unassigned         int              `json:"unassigned"`
	CreatedToday       int              `json:"createdToday"`
	CreatedThisWeek    int              `json:"createdThisWeek"`
	CreatedThisMonth   int              `json:"createdThisMonth"`
	RecentActive       int              `json:"recentActive"`
	UsersByRole        []RoleCount      `json:"usersByRole"`
	AvgResolutionHours float64          `json:"avgResolutionHours"`
	SupportActivity    []AgentWorkload  `json:"supportActivity"`
	TopClients         []ClientActivity `json:"topClients"`
	DailyTrend         []DailyCount     `json:"dailyTrend"`
	ResolutionRate     int              `json:"resolutionRate"`
	Workload           int              `json:"workload"`
}

// SupportReport carries an agent's own aggregates.
type SupportReport struct {
	AssignedToday int `json:"assignedToday"`
	ClosedToday   int `json:"closedToday"`
	DailyAverage  int `json:"dailyAverage"`
	Workload      int `json:"workload"`
	Efficiency    int `json:"efficiency"`
}

type RoleCount struct {
	RoleID int64  `json:"roleId"`
	Role   string `json:"role"`
	Count  int    `json:"count"`
}

type AgentWorkload struct {
	UserID  int64  `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Tickets int    `json:"tickets"`
}

type ClientActivity struct {
	ClientID int64  `json:"clientId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Tickets  int    `json:"tickets"`
}

type DailyCount struct {
	Day     string `json:"day"`
	Tickets int    `json:"tickets"`
}
