package domain

import (
	"fmt"
	"sort"
	"time"
)

// ISODate is the layout used for schedule map keys and day dates.
const ISODate = "2006-01-02"

// A customer assigned to a specific day of the optimized week.
// RouteOrder is the 1-based visiting sequence within the day.
type ScheduleCustomer struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Address           string  `json:"address"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	Price             float64 `json:"price"`
	EstimatedDuration int     `json:"estimated_duration"`
	DaysSinceService  int     `json:"days_since_service"`
	DaysOverdue       int     `json:"days_overdue"`
	UrgencyScore      float64 `json:"urgency_score"`
	NextDueDate       string  `json:"next_due_date"`
	RouteOrder        int     `json:"route_order"`
}

// Travel-time savings for one day: engine route vs a naive visiting order.
type TimeSavings struct {
	OptimizedTravelMinutes float64 `json:"optimized_travel_minutes"`
	NaiveTravelMinutes     float64 `json:"naive_travel_minutes"`
	FuelSavedGBP           float64 `json:"fuel_saved_gbp"`
	EfficiencyPercent      float64 `json:"efficiency_percent"`
	ExtraCustomersPossible int     `json:"extra_customers_possible"`
}

// One calendar date's plan. Customers are kept sorted by RouteOrder.
type DaySchedule struct {
	Date          string             `json:"date"`
	DayName       string             `json:"day_name"`
	MaxHours      float64            `json:"max_hours"`
	Customers     []ScheduleCustomer `json:"customers"`
	TotalDuration int                `json:"total_duration"`
	TotalRevenue  float64            `json:"total_revenue"`
	TimeSavings   TimeSavings        `json:"time_savings"`
}

// Week-level totals across all scheduled days.
type ScheduleSummary struct {
	TotalCustomersScheduled int     `json:"total_customers_scheduled"`
	TotalRevenue            float64 `json:"total_revenue"`
	TotalWorkHours          float64 `json:"total_work_hours"`
	WorkingDays             int     `json:"working_days"`
	AverageCustomersPerDay  float64 `json:"average_customers_per_day"`
	AverageRevenuePerDay    float64 `json:"average_revenue_per_day"`
}

// Week-level rollup of per-day travel savings.
type TimeSavingsSummary struct {
	TotalTimeSavedMinutes float64 `json:"total_time_saved_minutes"`
	TotalTimeSavedHours   float64 `json:"total_time_saved_hours"`
	TotalFuelSavedGBP     float64 `json:"total_fuel_saved_gbp"`
	ExtraCustomersPerWeek int     `json:"extra_customers_per_week"`
	WeeklyEfficiencyGain  float64 `json:"weekly_efficiency_gain"`
}

// The full optimization result for one user over a multi-day horizon.
// Days is keyed by ISO date; consumers iterate via SortedDates.
type OptimizedSchedule struct {
	WorkSchedule          WorkSchedule           `json:"work_schedule"`
	Days                  map[string]DaySchedule `json:"schedule"`
	Summary               ScheduleSummary        `json:"summary"`
	TimeSavings           TimeSavingsSummary     `json:"time_savings_summary"`
	UnscheduledCustomers  int                    `json:"unscheduled_customers"`
	CustomersFromDatabase int                    `json:"customers_from_database"`
}

// ValidateRouteOrder checks that customers form a 1..N sequence with no
// duplicates or gaps when sorted by RouteOrder.
func (d DaySchedule) ValidateRouteOrder() error {
	seen := make(map[int]struct{}, len(d.Customers))
	for _, c := range d.Customers {
		if c.RouteOrder < 1 || c.RouteOrder > len(d.Customers) {
			return fmt.Errorf(
				"day %s: customer %q route_order=%d out of range 1..%d",
				d.Date, c.ID, c.RouteOrder, len(d.Customers),
			)
		}
		if _, ok := seen[c.RouteOrder]; ok {
			return fmt.Errorf("day %s: duplicate route_order=%d", d.Date, c.RouteOrder)
		}
		seen[c.RouteOrder] = struct{}{}
	}
	return nil
}

// Clone returns an independent copy of the day, including its customer slice.
func (d DaySchedule) Clone() DaySchedule {
	out := d
	if d.Customers != nil {
		out.Customers = make([]ScheduleCustomer, len(d.Customers))
		copy(out.Customers, d.Customers)
	}
	return out
}

// Validate checks the structural contract of an engine result: parseable
// ISO date keys matching each day's own date, contiguous route orders, and
// non-negative counters.
func (s *OptimizedSchedule) Validate() error {
	if s == nil {
		return fmt.Errorf("validate schedule: schedule is nil")
	}

	if s.UnscheduledCustomers < 0 {
		return fmt.Errorf("validate schedule: unscheduled_customers=%d is negative", s.UnscheduledCustomers)
	}
	if s.CustomersFromDatabase < 0 {
		return fmt.Errorf("validate schedule: customers_from_database=%d is negative", s.CustomersFromDatabase)
	}

	for key, day := range s.Days {
		if _, err := time.Parse(ISODate, key); err != nil {
			return fmt.Errorf("validate schedule: key %q is not an ISO date: %w", key, err)
		}
		if day.Date != "" && day.Date != key {
			return fmt.Errorf("validate schedule: key %q holds day dated %q", key, day.Date)
		}
		if err := day.ValidateRouteOrder(); err != nil {
			return fmt.Errorf("validate schedule: %w", err)
		}
	}

	return nil
}

// SortedDates returns the schedule's date keys in ascending order.
func (s *OptimizedSchedule) SortedDates() []string {
	dates := make([]string, 0, len(s.Days))
	for d := range s.Days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// DayFor looks up the plan for one ISO date.
func (s *OptimizedSchedule) DayFor(date string) (DaySchedule, bool) {
	d, ok := s.Days[date]
	return d, ok
}

// Clone returns a deep copy so concurrent readers never share mutable state
// with the cache's stored value.
func (s *OptimizedSchedule) Clone() *OptimizedSchedule {
	if s == nil {
		return nil
	}

	out := &OptimizedSchedule{
		WorkSchedule:          s.WorkSchedule.Clone(),
		Summary:               s.Summary,
		TimeSavings:           s.TimeSavings,
		UnscheduledCustomers:  s.UnscheduledCustomers,
		CustomersFromDatabase: s.CustomersFromDatabase,
	}

	if s.Days != nil {
		out.Days = make(map[string]DaySchedule, len(s.Days))
		for k, v := range s.Days {
			out.Days[k] = v.Clone()
		}
	}

	return out
}

// RecomputeSummaries rebuilds the week summary and savings rollup from the
// current day set. Used after protected days are spliced in, so a mixed week
// never advertises totals neither source produced.
func (s *OptimizedSchedule) RecomputeSummaries() {
	summary := ScheduleSummary{}
	savings := TimeSavingsSummary{}

	efficiencySum := 0.0
	for _, day := range s.Days {
		if len(day.Customers) == 0 {
			continue
		}

		summary.WorkingDays++
		summary.TotalCustomersScheduled += len(day.Customers)
		summary.TotalRevenue += day.TotalRevenue
		summary.TotalWorkHours += float64(day.TotalDuration) / 60.0

		saved := day.TimeSavings.NaiveTravelMinutes - day.TimeSavings.OptimizedTravelMinutes
		if saved > 0 {
			savings.TotalTimeSavedMinutes += saved
		}
		savings.TotalFuelSavedGBP += day.TimeSavings.FuelSavedGBP
		savings.ExtraCustomersPerWeek += day.TimeSavings.ExtraCustomersPossible
		efficiencySum += day.TimeSavings.EfficiencyPercent
	}

	if summary.WorkingDays > 0 {
		summary.AverageCustomersPerDay = float64(summary.TotalCustomersScheduled) / float64(summary.WorkingDays)
		summary.AverageRevenuePerDay = summary.TotalRevenue / float64(summary.WorkingDays)
		savings.WeeklyEfficiencyGain = efficiencySum / float64(summary.WorkingDays)
	}
	savings.TotalTimeSavedHours = savings.TotalTimeSavedMinutes / 60.0

	s.Summary = summary
	s.TimeSavings = savings
}
