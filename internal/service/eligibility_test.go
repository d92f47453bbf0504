package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stjcampus/events-api/internal/models"
)

func intPtr(v int) *int { return &v }

func individualEvent(date time.Time) *models.Event {
	return &models.Event{
		ID:                "event-1",
		Title:             "Solo Coding",
		ParticipationType: models.ParticipationIndividual,
		Date:              date,
	}
}

func teamEvent(date time.Time, membersPerTeam int) *models.Event {
	return &models.Event{
		ID:                "event-2",
		Title:             "Quiz League",
		ParticipationType: models.ParticipationTeam,
		Date:              date,
		MembersPerTeam:    membersPerTeam,
	}
}

func individualReg(userID, department string) models.Registration {
	return models.Registration{
		ID:                "reg-" + userID,
		EventID:           "event-1",
		UserID:            userID,
		Department:        department,
		ParticipationType: models.ParticipationIndividual,
	}
}

func teamReg(userID, department string, members int) models.Registration {
	return models.Registration{
		ID:                "reg-" + userID,
		EventID:           "event-2",
		UserID:            userID,
		Department:        department,
		ParticipationType: models.ParticipationTeam,
		Team:              completeRoster(department, members),
	}
}

func completeRoster(department string, members int) *models.TeamData {
	team := &models.TeamData{Department: department}
	for i := 0; i < members; i++ {
		team.Members = append(team.Members, models.TeamMember{
			Name:  fmt.Sprintf("Member %d", i+1),
			RegNo: fmt.Sprintf("REG%03d", i+1),
		})
	}
	return team
}

func TestEvaluateClosedEventRejectsEveryone(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, -1))

	decision := EvaluateRegistration(event, Candidate{UserID: "user-1", Department: "CS"}, nil, now)

	assert.False(t, decision.Admitted)
	assert.Equal(t, ReasonEventClosed, decision.Reason)
}

func TestEvaluateSameDayEventStillOpen(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.Local)
	event := individualEvent(time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local))

	decision := EvaluateRegistration(event, Candidate{UserID: "user-1", Department: "CS"}, nil, now)

	assert.True(t, decision.Admitted)
}

func TestEvaluateDuplicateRegistration(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, 3))
	existing := []models.Registration{individualReg("user-1", "CS")}

	decision := EvaluateRegistration(event, Candidate{UserID: "user-1", Department: "CS"}, existing, now)

	assert.False(t, decision.Admitted)
	assert.Equal(t, ReasonAlreadyRegistered, decision.Reason)
}

func TestEvaluateOverallLimitBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, 3))
	event.OverallIndividualLimit = intPtr(2)
	existing := []models.Registration{
		individualReg("user-1", "CS"),
		individualReg("user-2", "EEE"),
	}

	decision := EvaluateRegistration(event, Candidate{UserID: "user-3", Department: "ME"}, existing, now)

	assert.False(t, decision.Admitted)
	assert.Equal(t, ReasonOverallLimitReached, decision.Reason)
}

func TestEvaluateDuplicateCheckedBeforeOverallLimit(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, 3))
	event.OverallIndividualLimit = intPtr(1)
	existing := []models.Registration{individualReg("user-1", "CS")}

	decision := EvaluateRegistration(event, Candidate{UserID: "user-1", Department: "CS"}, existing, now)

	assert.Equal(t, ReasonAlreadyRegistered, decision.Reason)
}

func TestEvaluateDepartmentLimit(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, 3))
	event.DepartmentIndividualLimit = intPtr(1)
	existing := []models.Registration{individualReg("user-1", "CS")}

	rejected := EvaluateRegistration(event, Candidate{UserID: "user-2", Department: "CS"}, existing, now)
	assert.False(t, rejected.Admitted)
	assert.Equal(t, ReasonDepartmentLimitReached, rejected.Reason)

	admitted := EvaluateRegistration(event, Candidate{UserID: "user-3", Department: "EEE"}, existing, now)
	assert.True(t, admitted.Admitted)
}

func TestEvaluateDepartmentCountIncludesTeamRows(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, 3))
	event.DepartmentIndividualLimit = intPtr(1)
	existing := []models.Registration{teamReg("user-1", "CS", 2)}

	decision := EvaluateRegistration(event, Candidate{UserID: "user-2", Department: "CS"}, existing, now)

	assert.Equal(t, ReasonDepartmentLimitReached, decision.Reason)
}

func TestEvaluateOverallAndDepartmentLimitsAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, 3))
	event.OverallIndividualLimit = intPtr(10)
	event.DepartmentIndividualLimit = intPtr(1)
	existing := []models.Registration{individualReg("user-1", "CS")}

	decision := EvaluateRegistration(event, Candidate{UserID: "user-2", Department: "CS"}, existing, now)

	assert.Equal(t, ReasonDepartmentLimitReached, decision.Reason)
}

func TestEvaluateNilLimitsMeanUnlimited(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := individualEvent(now.AddDate(0, 0, 3))

	existing := make([]models.Registration, 0, 500)
	for i := 0; i < 500; i++ {
		existing = append(existing, individualReg(fmt.Sprintf("user-%d", i), "CS"))
	}

	decision := EvaluateRegistration(event, Candidate{UserID: "user-new", Department: "CS"}, existing, now)

	assert.True(t, decision.Admitted)
}

func TestEvaluateIncompleteRoster(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := teamEvent(now.AddDate(0, 0, 3), 3)
	event.TeamsPerDepartment = intPtr(1)
	// A full department means roster validity must be checked first.
	existing := []models.Registration{teamReg("user-1", "CS", 3)}

	blankName := completeRoster("CS", 3)
	blankName.Members[1].Name = ""
	blankRegNo := completeRoster("CS", 3)
	blankRegNo.Members[2].RegNo = ""

	cases := []struct {
		name string
		team *models.TeamData
	}{
		{"nil team", nil},
		{"too few members", completeRoster("CS", 2)},
		{"too many members", completeRoster("CS", 4)},
		{"blank member name", blankName},
		{"blank register number", blankRegNo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := EvaluateRegistration(event, Candidate{UserID: "user-9", Department: "CS", Team: tc.team}, existing, now)
			assert.False(t, decision.Admitted)
			assert.Equal(t, ReasonIncompleteRoster, decision.Reason)
		})
	}
}

func TestEvaluateTeamLimitPerDepartment(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := teamEvent(now.AddDate(0, 0, 3), 2)
	event.TeamsPerDepartment = intPtr(1)
	existing := []models.Registration{teamReg("user-1", "CS", 2)}

	rejected := EvaluateRegistration(event, Candidate{UserID: "user-2", Department: "CS", Team: completeRoster("CS", 2)}, existing, now)
	assert.False(t, rejected.Admitted)
	assert.Equal(t, ReasonTeamLimitReached, rejected.Reason)

	admitted := EvaluateRegistration(event, Candidate{UserID: "user-3", Department: "EEE", Team: completeRoster("EEE", 2)}, existing, now)
	assert.True(t, admitted.Admitted)
}

func TestEvaluateTeamLimitUnsetAdmitsManyTeams(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	event := teamEvent(now.AddDate(0, 0, 3), 2)

	existing := make([]models.Registration, 0, 20)
	for i := 0; i < 20; i++ {
		existing = append(existing, teamReg(fmt.Sprintf("user-%d", i), "CS", 2))
	}

	decision := EvaluateRegistration(event, Candidate{UserID: "user-new", Department: "CS", Team: completeRoster("CS", 2)}, existing, now)

	assert.True(t, decision.Admitted)
}
