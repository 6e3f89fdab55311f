package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChapterRunDates(t *testing.T) {
	db := newTestDB(t)

	course, chapters := createCourse(t, db, "linked-chain", 7, 5, 3)
	run := createRun(t, db, course, "linked-chain-run", "2024-01-01")

	start, end, err := chapters[0].RunDates(db, run)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2024-01-01"), start)
	assert.Equal(t, date(t, "2024-01-07"), end)

	start, end, err = chapters[1].RunDates(db, run)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2024-01-08"), start)
	assert.Equal(t, date(t, "2024-01-12"), end)

	start, end, err = chapters[2].RunDates(db, run)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2024-01-13"), start)
	assert.Equal(t, date(t, "2024-01-15"), end)
}

func TestChapterRunDatesZeroLength(t *testing.T) {
	db := newTestDB(t)

	course, chapters := createCourse(t, db, "zero-length", 7, 0)
	run := createRun(t, db, course, "zero-length-run", "2024-01-01")

	// A zero-length chapter keeps the literal arithmetic: its window ends
	// the day before it starts.
	start, end, err := chapters[1].RunDates(db, run)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2024-01-08"), start)
	assert.Equal(t, date(t, "2024-01-07"), end)
}

func TestChapterRejectsCrossCourseLink(t *testing.T) {
	db := newTestDB(t)

	_, chapters := createCourse(t, db, "course-one", 7)
	courseTwo, _ := createCourse(t, db, "course-two", 7)

	chapter := Chapter{
		Title:      "Invalid",
		Slug:       "invalid-link",
		CourseID:   courseTwo.ID,
		PreviousID: &chapters[0].ID,
		Length:     7,
	}
	err := db.Create(&chapter).Error
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "previous", validationErr.Field)
}

func TestChapterRejectsCycles(t *testing.T) {
	db := newTestDB(t)

	_, chapters := createCourse(t, db, "cycle-course", 7, 5)

	// Loop the first chapter back onto the second one.
	chapters[0].PreviousID = &chapters[1].ID
	err := db.Save(&chapters[0]).Error
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "previous", validationErr.Field)
}

func TestCourseLengthAndSelfPaced(t *testing.T) {
	db := newTestDB(t)

	course, _ := createCourse(t, db, "timed-course", 7, 5, 3)
	length, err := course.Length(db)
	require.NoError(t, err)
	assert.Equal(t, 15, length)

	selfPaced, err := course.SelfPaced(db)
	require.NoError(t, err)
	assert.False(t, selfPaced)

	paced, _ := createCourse(t, db, "paced-course", 0, 0)
	selfPaced, err = paced.SelfPaced(db)
	require.NoError(t, err)
	assert.True(t, selfPaced)
}

func TestCourseActiveRuns(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-02-01")

	course, _ := createCourse(t, db, "active-runs", 7)
	createRun(t, db, course, "past-run", "2024-01-01")
	createRun(t, db, course, "current-run", "2024-01-29")
	createRun(t, db, course, "future-run", "2024-03-01")

	runs, err := course.ActiveRuns(db)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "future-run", runs[0].Slug)
	assert.Equal(t, "current-run", runs[1].Slug)

	course.State = CourseStateDraft
	runs, err = course.ActiveRuns(db)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunEndDerivedFromCourseLength(t *testing.T) {
	db := newTestDB(t)

	course, _ := createCourse(t, db, "derived-end", 7, 5, 3)
	run := createRun(t, db, course, "derived-end-run", "2024-01-01")

	require.NotNil(t, run.End)
	assert.Equal(t, date(t, "2024-01-15"), *run.End)

	selfPaced, _ := createCourse(t, db, "paced", 0)
	pacedRun := createRun(t, db, selfPaced, "paced-run", "2024-01-01")
	assert.Nil(t, pacedRun.End)
}
