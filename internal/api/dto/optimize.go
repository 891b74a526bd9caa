package dto

import (
	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/services"
)

type OptimizeRequest struct {
	UserID          string                `json:"user_id"`
	WorkSchedule    *domain.WorkSchedule  `json:"work_schedule"`
	CleanerLocation *domain.StartLocation `json:"cleaner_location"`
}

type OptimizeData struct {
	FullSchedule          map[string]domain.DaySchedule `json:"full_schedule"`
	TodaysSchedule        *domain.DaySchedule           `json:"todays_schedule"`
	Metrics               services.MetricsView          `json:"metrics"`
	Summary               domain.ScheduleSummary        `json:"summary"`
	TimeSavings           domain.TimeSavingsSummary     `json:"time_savings"`
	UnscheduledCustomers  int                           `json:"unscheduled_customers"`
	CustomersFromDatabase int                           `json:"customers_from_database"`
}

type OptimizeResponse struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	IsFirstTime    bool          `json:"is_first_time"`
	ProtectedDates []string      `json:"protected_dates"`
	Data           *OptimizeData `json:"data"`
}

type OptimizeErrorResponse struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	Code             string `json:"code"`
	OptimizationType string `json:"optimization_type"`
}
