package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRunIsFull(t *testing.T) {
	db := newTestDB(t)

	course, _ := createCourse(t, db, "limited", 7)
	run := createRun(t, db, course, "limited-run", "2024-01-01")
	run.Limit = 2
	require.NoError(t, db.Save(run).Error)

	full, err := run.IsFull(db)
	require.NoError(t, err)
	assert.False(t, full)

	userOne := createUser(t, db, "one@example.com", "USER")
	userTwo := createUser(t, db, "two@example.com", "USER")
	require.NoError(t, db.Create(&RunUser{RunID: run.ID, UserID: userOne.ID}).Error)
	require.NoError(t, db.Create(&RunUser{RunID: run.ID, UserID: userTwo.ID}).Error)

	full, err = run.IsFull(db)
	require.NoError(t, err)
	assert.True(t, full)

	// Limit 0 means unlimited, regardless of subscriber count
	run.Limit = 0
	require.NoError(t, db.Save(run).Error)
	full, err = run.IsFull(db)
	require.NoError(t, err)
	assert.False(t, full)
}

func TestRunSettingPrecedence(t *testing.T) {
	db := newTestDB(t)

	course, _ := createCourse(t, db, "settings-course", 7)
	run := createRun(t, db, course, "settings-run", "2024-01-01")

	// Global default
	value, err := run.SettingBool(db, "COURSES_ALLOW_USER_UNSUBSCRIBE")
	require.NoError(t, err)
	assert.True(t, value)

	// Course override wins over the default
	course.Metadata = datatypes.JSONMap{"options": map[string]interface{}{
		"COURSES_ALLOW_USER_UNSUBSCRIBE": false,
	}}
	require.NoError(t, db.Save(course).Error)

	run.Course = Course{} // drop the cached course row
	value, err = run.SettingBool(db, "COURSES_ALLOW_USER_UNSUBSCRIBE")
	require.NoError(t, err)
	assert.False(t, value)

	// Run override wins over the course
	run.Metadata = datatypes.JSONMap{"options": map[string]interface{}{
		"COURSES_ALLOW_USER_UNSUBSCRIBE": true,
	}}
	require.NoError(t, db.Save(run).Error)
	value, err = run.SettingBool(db, "COURSES_ALLOW_USER_UNSUBSCRIBE")
	require.NoError(t, err)
	assert.True(t, value)
}

func TestRunSettingUnknownKey(t *testing.T) {
	db := newTestDB(t)

	course, _ := createCourse(t, db, "unknown-setting", 7)
	run := createRun(t, db, course, "unknown-setting-run", "2024-01-01")

	_, err := run.Setting(db, "COURSES_NO_SUCH_OPTION")
	require.ErrorIs(t, err, ErrUnknownSetting)
}

func TestMeetingMustFitChapterWindow(t *testing.T) {
	db := newTestDB(t)

	course, chapters := createCourse(t, db, "meetings", 7)
	run := createRun(t, db, course, "meetings-run", "2024-01-01")

	lecture := Lecture{Title: "Live", Slug: "live-lesson", ChapterID: chapters[0].ID, LectureType: LectureTypeLive}
	require.NoError(t, db.Create(&lecture).Error)

	organizer := createUser(t, db, "organizer@example.com", "STAFF")

	meeting := Meeting{
		RunID:       run.ID,
		LectureID:   lecture.ID,
		Start:       date(t, "2024-01-03"),
		End:         date(t, "2024-01-03").Add(2 * time.Hour),
		Link:        "https://meet.example.com/live",
		OrganizerID: organizer.ID,
	}
	require.NoError(t, db.Create(&meeting).Error)

	outside := Meeting{
		RunID:       run.ID,
		LectureID:   lecture.ID,
		Start:       date(t, "2024-02-01"),
		End:         date(t, "2024-02-01").Add(2 * time.Hour),
		Link:        "https://meet.example.com/late",
		OrganizerID: organizer.ID,
	}
	err := db.Create(&outside).Error
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	backwards := Meeting{
		RunID:       run.ID,
		LectureID:   lecture.ID,
		Start:       date(t, "2024-01-04"),
		End:         date(t, "2024-01-03"),
		Link:        "https://meet.example.com/backwards",
		OrganizerID: organizer.ID,
	}
	err = db.Create(&backwards).Error
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "end", validationErr.Field)
}
