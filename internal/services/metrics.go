package services

import "schedule-orchestrator/internal/domain"

// MetricsView is the flat summary presentation layers consume.
type MetricsView struct {
	TotalCustomers         int     `json:"total_customers"`
	TotalRevenue           float64 `json:"total_revenue"`
	WorkingDays            int     `json:"working_days"`
	TotalWorkHours         float64 `json:"total_work_hours"`
	TimeSavedHours         float64 `json:"time_saved_hours"`
	FuelSavingsGBP         float64 `json:"fuel_savings_gbp"`
	EfficiencyGainPercent  float64 `json:"efficiency_gain_percent"`
	ExtraCustomersPossible int     `json:"extra_customers_possible"`
	UnscheduledCustomers   int     `json:"unscheduled_customers"`
}

// ExtractMetrics projects an optimized schedule onto a MetricsView.
// Pure and total: a nil schedule yields the zero view.
func ExtractMetrics(s *domain.OptimizedSchedule) MetricsView {
	if s == nil {
		return MetricsView{}
	}

	return MetricsView{
		TotalCustomers:         s.Summary.TotalCustomersScheduled,
		TotalRevenue:           s.Summary.TotalRevenue,
		WorkingDays:            s.Summary.WorkingDays,
		TotalWorkHours:         s.Summary.TotalWorkHours,
		TimeSavedHours:         s.TimeSavings.TotalTimeSavedHours,
		FuelSavingsGBP:         s.TimeSavings.TotalFuelSavedGBP,
		EfficiencyGainPercent:  s.TimeSavings.WeeklyEfficiencyGain,
		ExtraCustomersPossible: s.TimeSavings.ExtraCustomersPerWeek,
		UnscheduledCustomers:   s.UnscheduledCustomers,
	}
}
