package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRunAccess(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	err := VerifyRunAccess(db, run, user)
	assert.ErrorIs(t, err, ErrNotSubscribed)

	_, err = Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)
	assert.NoError(t, VerifyRunAccess(db, run, user))
}

func TestVerifyRunAccessStaffBypass(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	staff := createUser(t, db, "teacher@example.com", "STAFF")

	assert.NoError(t, VerifyRunAccess(db, run, staff))
}

func TestVerifyRunAccessUnpaidLevel(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	level := SubscriptionLevel{RunID: &run.ID, Title: "Premium", Price: 100}
	require.NoError(t, db.Create(&level).Error)

	runUser, err := Subscribe(db, run, user.ID, &level.ID)
	require.NoError(t, err)

	err = VerifyRunAccess(db, run, user)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	runUser.Payment = 100
	require.NoError(t, db.Save(runUser).Error)
	assert.NoError(t, VerifyRunAccess(db, run, user))
}

func TestCheckChapterAccessNotYetOpen(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-02")

	course, chapters := createCourse(t, db, "golang", 7, 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")
	_, err := Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)

	access, err := CheckChapterAccess(db, run, &chapters[0], user, ActionView)
	require.NoError(t, err)
	assert.False(t, access.Ended)
	assert.Equal(t, date(t, "2024-01-01"), access.Start)
	assert.Equal(t, date(t, "2024-01-07"), access.End)

	// Second chapter opens on 2024-01-08.
	_, err = CheckChapterAccess(db, run, &chapters[1], user, ActionView)
	assert.ErrorIs(t, err, ErrNotYetOpen)
}

func TestCheckChapterAccessPassedChapter(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-10")

	course, chapters := createCourse(t, db, "golang", 7, 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")
	_, err := Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)

	// Viewing passed chapters is allowed by default, flagged as ended.
	access, err := CheckChapterAccess(db, run, &chapters[0], user, ActionView)
	require.NoError(t, err)
	assert.True(t, access.Ended)

	run.Metadata = map[string]interface{}{
		"options": map[string]interface{}{
			"COURSES_ALLOW_ACCESS_TO_PASSED_CHAPTERS": false,
		},
	}
	require.NoError(t, db.Save(run).Error)

	_, err = CheckChapterAccess(db, run, &chapters[0], user, ActionView)
	assert.ErrorIs(t, err, ErrChapterClosed)
}

func TestCheckChapterAccessSubmit(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-10")

	course, chapters := createCourse(t, db, "golang", 7, 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")
	_, err := Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)

	// Submissions to passed chapters are blocked by default.
	_, err = CheckChapterAccess(db, run, &chapters[0], user, ActionSubmit)
	assert.ErrorIs(t, err, ErrSubmissionWindowClosed)

	run.Metadata = map[string]interface{}{
		"options": map[string]interface{}{
			"COURSES_ALLOW_SUBMISSION_TO_PASSED_CHAPTERS": true,
		},
	}
	require.NoError(t, db.Save(run).Error)

	access, err := CheckChapterAccess(db, run, &chapters[0], user, ActionSubmit)
	require.NoError(t, err)
	assert.True(t, access.Ended)

	// The open chapter accepts submissions without any override.
	access, err = CheckChapterAccess(db, run, &chapters[1], user, ActionSubmit)
	require.NoError(t, err)
	assert.False(t, access.Ended)
}

func TestCheckChapterAccessSubmissionDisabled(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-02")

	course, chapters := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")
	_, err := Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)

	chapter := chapters[0]
	chapter.RequireSubmission = SubmissionDisabled
	require.NoError(t, db.Save(&chapter).Error)

	_, err = CheckChapterAccess(db, run, &chapter, user, ActionSubmit)
	assert.ErrorIs(t, err, ErrSubmissionDisabled)
}

func TestCheckReviewAccess(t *testing.T) {
	submission := &Submission{AuthorID: 7}

	assert.ErrorIs(t, CheckReviewAccess(7, submission), ErrSelfReviewForbidden)
	assert.NoError(t, CheckReviewAccess(8, submission))
}
