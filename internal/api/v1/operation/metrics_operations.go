package operation

import "fintrack/internal/api/v1/dto"

// Admin Metrics Operations

type GetDashboardInput struct {
	From string `query:"from" doc:"Range start, YYYY-MM-DD or RFC 3339; defaults to three months back"`
	To   string `query:"to" doc:"Range end, YYYY-MM-DD or RFC 3339; defaults to now"`
}

type GetDashboardOutput struct {
	Body dto.DashboardResponseDTO `json:"body"`
}

type MonthInput struct {
	Year  int `query:"year" minimum:"0" maximum:"2100" doc:"Anchor year; defaults to the current one"`
	Month int `query:"month" minimum:"0" maximum:"12" doc:"Anchor month; defaults to the current one"`
}

type GetOverviewOutput struct {
	Body dto.OverviewResponseDTO `json:"body"`
}

type GetReportsOutput struct {
	Body dto.ReportResponseDTO `json:"body"`
}

type GetReportChartInput struct {
	Year  int    `query:"year" minimum:"0" maximum:"2100" doc:"Anchor year; defaults to the current one"`
	Month int    `query:"month" minimum:"0" maximum:"12" doc:"Anchor month; defaults to the current one"`
	Kind  string `query:"kind" default:"revenue" enum:"revenue,users" doc:"Which series to draw"`
}

type GetReportChartOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// Dead Letter Operations

type ListDeadLettersInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Number of messages"`
}

type ListDeadLettersOutput struct {
	Body []dto.DeadLetterResponseDTO `json:"body"`
}
