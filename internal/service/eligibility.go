package service

import (
	"time"

	"github.com/stjcampus/events-api/internal/models"
)

// RejectReason identifies which rule turned a candidate away.
type RejectReason string

const (
	ReasonEventClosed            RejectReason = "EVENT_CLOSED"
	ReasonAlreadyRegistered      RejectReason = "ALREADY_REGISTERED"
	ReasonIncompleteRoster       RejectReason = "INCOMPLETE_ROSTER"
	ReasonOverallLimitReached    RejectReason = "OVERALL_LIMIT_REACHED"
	ReasonDepartmentLimitReached RejectReason = "DEPARTMENT_LIMIT_REACHED"
	ReasonTeamLimitReached       RejectReason = "TEAM_LIMIT_REACHED"
)

// Decision is the outcome of an eligibility evaluation.
type Decision struct {
	Admitted bool
	Reason   RejectReason
}

// Admit is the positive decision.
func Admit() Decision {
	return Decision{Admitted: true}
}

// Reject carries the first violated rule.
func Reject(reason RejectReason) Decision {
	return Decision{Reason: reason}
}

// Candidate is a prospective registrant. Team is nil for individual
// events and carries the proposed roster for team events.
type Candidate struct {
	UserID     string
	Department string
	Team       *models.TeamData
}

// EvaluateRegistration decides whether a candidate may register for an
// event given the current ledger snapshot. It is a pure function: rules
// run in a fixed order, the first violated rule wins, nil limits mean
// unlimited, and it always returns a Decision for structurally valid
// input. The caller persists the registration only on an admit.
func EvaluateRegistration(event *models.Event, candidate Candidate, existing []models.Registration, now time.Time) Decision {
	if eventClosed(event.Date, now) {
		return Reject(ReasonEventClosed)
	}

	switch event.ParticipationType {
	case models.ParticipationTeam:
		return evaluateTeam(event, candidate, existing)
	default:
		return evaluateIndividual(event, candidate, existing)
	}
}

func evaluateIndividual(event *models.Event, candidate Candidate, existing []models.Registration) Decision {
	for _, reg := range existing {
		if reg.UserID == candidate.UserID {
			return Reject(ReasonAlreadyRegistered)
		}
	}

	if limit := event.OverallIndividualLimit; limit != nil && len(existing) >= *limit {
		return Reject(ReasonOverallLimitReached)
	}

	if limit := event.DepartmentIndividualLimit; limit != nil {
		count := 0
		for _, reg := range existing {
			if registrationDepartment(reg) == candidate.Department {
				count++
			}
		}
		if count >= *limit {
			return Reject(ReasonDepartmentLimitReached)
		}
	}

	return Admit()
}

func evaluateTeam(event *models.Event, candidate Candidate, existing []models.Registration) Decision {
	if !rosterComplete(candidate.Team, event.MembersPerTeam) {
		return Reject(ReasonIncompleteRoster)
	}

	if limit := event.TeamsPerDepartment; limit != nil {
		count := 0
		for _, reg := range existing {
			if reg.Team != nil && reg.Team.Department == candidate.Team.Department {
				count++
			}
		}
		if count >= *limit {
			return Reject(ReasonTeamLimitReached)
		}
	}

	return Admit()
}

// eventClosed compares calendar dates only: a same-day event is still
// open regardless of time of day.
func eventClosed(eventDate, now time.Time) bool {
	return midnight(eventDate).Before(midnight(now))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// registrationDepartment resolves the department of a ledger row,
// falling back to the team department when the row carries one.
func registrationDepartment(reg models.Registration) string {
	if reg.Team != nil && reg.Team.Department != "" {
		return reg.Team.Department
	}
	return reg.Department
}

// rosterComplete requires exactly size members, each with a non-blank
// name and register number.
func rosterComplete(team *models.TeamData, size int) bool {
	if team == nil || len(team.Members) != size {
		return false
	}
	for _, member := range team.Members {
		if member.Name == "" || member.RegNo == "" {
			return false
		}
	}
	return true
}
