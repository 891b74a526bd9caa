package services

import (
	"time"

	"schedule-orchestrator/internal/domain"
)

// Prior is the two-variant outcome of looking up a user's previous
// schedule: NoPrior() for a first-time user, WithPrior(s) otherwise.
type Prior struct {
	schedule *domain.OptimizedSchedule
}

func NoPrior() Prior {
	return Prior{}
}

func WithPrior(s *domain.OptimizedSchedule) Prior {
	return Prior{schedule: s}
}

// Exists reports whether a previous schedule was found.
func (p Prior) Exists() bool {
	return p.schedule != nil
}

// Schedule returns the previous schedule, or nil for a first-time user.
func (p Prior) Schedule() *domain.OptimizedSchedule {
	return p.schedule
}

// ProtectedDates computes the calendar dates a re-optimization must leave
// untouched: today and tomorrow in the given timezone, whenever a prior
// schedule exists. First-time users have nothing to protect.
//
// Pure function: it only computes the set. The orchestrator enforces it
// by splicing the prior schedule's days over the engine proposal.
func ProtectedDates(now time.Time, loc *time.Location, prior Prior) []string {
	if !prior.Exists() {
		return nil
	}

	if loc == nil {
		loc = time.Local
	}

	local := now.In(loc)
	today := local.Format(domain.ISODate)
	tomorrow := local.AddDate(0, 0, 1).Format(domain.ISODate)

	return []string{today, tomorrow}
}
