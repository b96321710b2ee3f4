package service

import (
	"context"
	"testing"
	"time"
	"vetlms_backend/internal/model"
	"vetlms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargets(t *testing.T) {
	course := &model.Course{
		AssignedDepartments: []string{"Nursing"},
		AssignedPositions:   []string{"Receptionist"},
		ExceptionPositions:  []string{"Intern"},
	}
	cases := []struct {
		name string
		user model.User
		want bool
	}{
		{"department match", model.User{Department: "nursing", Position: "Vet Tech", IsActive: true}, true},
		{"position match", model.User{Department: "Front Desk", Position: "Receptionist", IsActive: true}, true},
		{"no match", model.User{Department: "Surgery", Position: "Surgeon", IsActive: true}, false},
		{"exception wins", model.User{Department: "Nursing", Position: "Intern", IsActive: true}, false},
		{"inactive", model.User{Department: "Nursing", Position: "Vet Tech"}, false},
		{"empty position", model.User{Department: "", Position: "", IsActive: true}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Targets(course, &c.user), c.name)
	}

	everyone := &model.Course{AssignToEntireCompany: true, ExceptionPositions: []string{"Intern"}}
	assert.True(t, Targets(everyone, &model.User{Position: "Surgeon", IsActive: true}))
	assert.False(t, Targets(everyone, &model.User{Position: "intern", IsActive: true}))
}

func TestAssignCourseEnrollsTargetedUsersOnce(t *testing.T) {
	f := newFixture(t)
	intern := f.addUser(t, "intern@happypaws.test", model.Employee, &f.north.ID, "Nursing", "Intern")
	southTech := f.addUser(t, "southtech@happypaws.test", model.Employee, &f.south.ID, "Nursing", "Vet Tech")
	newTech := f.addUser(t, "newtech@happypaws.test", model.Employee, &f.north.ID, "Nursing", "Vet Tech")

	f.course.AssignedDepartments = []string{"Nursing"}
	f.course.ExceptionPositions = []string{"Intern"}
	require.NoError(t, f.db.Save(&f.course).Error)

	deadline := fixedNow.Add(14 * 24 * time.Hour)
	res, err := f.assignment.AssignCourse(context.Background(), actorOf(f.admin), f.course.ID, AssignRequest{Deadline: &deadline})
	require.NoError(t, err)
	// employee already enrolled; supervisor and newTech are new
	assert.Equal(t, 2, res.Assigned)
	assert.Equal(t, 1, res.Skipped)

	var enrolled []uint
	require.NoError(t, f.db.Model(&model.Enrollment{}).Where("course_id = ?", f.course.ID).Pluck("user_id", &enrolled).Error)
	assert.ElementsMatch(t, []uint{f.employee.ID, f.supervisor.ID, newTech.ID}, enrolled)
	assert.NotContains(t, enrolled, intern.ID)
	assert.NotContains(t, enrolled, southTech.ID)

	var e model.Enrollment
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", newTech.ID, f.course.ID).First(&e).Error)
	assert.Equal(t, model.EnrollmentAssigned, e.Status)
	require.NotNil(t, e.Deadline)

	res, err = f.assignment.AssignCourse(context.Background(), actorOf(f.admin), f.course.ID, AssignRequest{})
	require.NoError(t, err)
	assert.Zero(t, res.Assigned)
	assert.Equal(t, 3, res.Skipped)
}

func TestAssignCourseRequiresPublishedCourse(t *testing.T) {
	f := newFixture(t)
	f.course.IsPublished = false
	require.NoError(t, f.db.Save(&f.course).Error)

	_, err := f.assignment.AssignCourse(context.Background(), actorOf(f.admin), f.course.ID, AssignRequest{})
	assert.True(t, util.IsValidation(err))

	_, err = f.assignment.AssignCourse(context.Background(), actorOf(f.employee), f.course.ID, AssignRequest{})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestStartAssignment(t *testing.T) {
	f := newFixture(t)

	e, err := f.assignment.Start(actorOf(f.employee), f.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentInProgress, e.Status)
	require.NotNil(t, e.StartedDate)

	e, err = f.assignment.Start(actorOf(f.employee), f.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentInProgress, e.Status)

	_, err = f.assignment.Start(actorOf(f.supervisor), f.enrollment.ID)
	assert.ErrorIs(t, err, util.ErrEnrollmentNotFound)

	mine, err := f.assignment.ListMine(actorOf(f.employee))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Course)
	assert.Equal(t, f.course.Title, mine[0].Course.Title)
}
