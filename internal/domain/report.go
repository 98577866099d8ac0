package domain

import "time"

// StatusCounts tallies tickets per lifecycle state.
type StatusCounts struct {
	Open       int
	InProgress int
	Closed     int
	Total      int
}

// RoleCount is the number of users holding a role.
type RoleCount struct {
	RoleID int64
	Role   Role
	Count  int
}

// AgentWorkload counts tickets assigned to one support agent.
type AgentWorkload struct {
	UserID  int64
	Name    string
	Email   string
	Tickets int
}

// ClientActivity counts tickets filed by one client.
type ClientActivity struct {
	ClientID int64
	Name     string
	Email    string
	Tickets  int
}

// DailyCount is the number of tickets created on one calendar day.
type DailyCount struct {
	Day     time.Time
	Tickets int
}

// AdminReport carries the organisation-wide aggregates.
type AdminReport struct {
	Unassigned         int
	CreatedToday       int
	CreatedThisWeek    int
	CreatedThisMonth   int
	RecentActive       int
	UsersByRole        []RoleCount
	AvgResolutionHours float64
	SupportActivity    []AgentWorkload
	TopClients         []ClientActivity
	DailyTrend         []DailyCount
	ResolutionRate     int
	Workload           int
}

// SupportReport carries an agent's personal aggregates.
type SupportReport struct {
	AssignedToday int
	ClosedToday   int
	DailyAverage  int
	Workload      int
	Efficiency    int
}

// Report is the role-scoped reporting payload.
type Report struct {
	Role        Role
	UserID      int64
	GeneratedAt time.Time
	Summary     StatusCounts
	Admin       *AdminReport
	Support     *SupportReport
}
