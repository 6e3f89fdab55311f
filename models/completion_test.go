package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassedNoRequirements(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	passed, err := Passed(db, run, user.ID)
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestPassedRequiredLectures(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, chapters := createCourse(t, db, "golang", 7, 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	first := Lecture{Title: "Basics", Slug: "basics", ChapterID: chapters[0].ID,
		LectureType: LectureTypeText, RequireSubmission: SubmissionToEnd}
	require.NoError(t, db.Create(&first).Error)
	second := Lecture{Title: "Structs", Slug: "structs", ChapterID: chapters[1].ID,
		LectureType: LectureTypeText, RequireSubmission: SubmissionForNext}
	require.NoError(t, db.Create(&second).Error)
	optional := Lecture{Title: "Extras", Slug: "extras", ChapterID: chapters[1].ID,
		LectureType: LectureTypeText, RequireSubmission: SubmissionNotRequired}
	require.NoError(t, db.Create(&optional).Error)

	passed, err := Passed(db, run, user.ID)
	require.NoError(t, err)
	assert.False(t, passed)

	require.NoError(t, db.Create(&Submission{
		Title: "Basics homework", RunID: run.ID, LectureID: &first.ID, AuthorID: user.ID,
	}).Error)

	passed, err = Passed(db, run, user.ID)
	require.NoError(t, err)
	assert.False(t, passed, "one required lecture still unsubmitted")

	require.NoError(t, db.Create(&Submission{
		Title: "Structs homework", RunID: run.ID, LectureID: &second.ID, AuthorID: user.ID,
	}).Error)

	passed, err = Passed(db, run, user.ID)
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestPassedIgnoresOtherUsers(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, chapters := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	author := createUser(t, db, "author@example.com", "USER")
	other := createUser(t, db, "other@example.com", "USER")

	lecture := Lecture{Title: "Basics", Slug: "basics", ChapterID: chapters[0].ID,
		LectureType: LectureTypeText, RequireSubmission: SubmissionToEnd}
	require.NoError(t, db.Create(&lecture).Error)

	require.NoError(t, db.Create(&Submission{
		Title: "Basics homework", RunID: run.ID, LectureID: &lecture.ID, AuthorID: author.ID,
	}).Error)

	passed, err := Passed(db, run, other.ID)
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestPassedRequiredChapterMatchesLectureReference(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, chapters := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	chapter := chapters[0]
	chapter.RequireSubmission = SubmissionToEnd
	require.NoError(t, db.Save(&chapter).Error)

	lecture := Lecture{Title: "Basics", Slug: "basics", ChapterID: chapter.ID, LectureType: LectureTypeText}
	require.NoError(t, db.Create(&lecture).Error)
	// The fresh tables make the first lecture share the first chapter's id,
	// which is what the chapter-requirement matching keys on.
	require.Equal(t, chapter.ID, lecture.ID)

	// A submission carrying only the chapter reference does not satisfy the
	// chapter requirement.
	require.NoError(t, db.Create(&Submission{
		Title: "Chapter work", RunID: run.ID, ChapterID: &chapter.ID, AuthorID: user.ID,
	}).Error)

	passed, err := Passed(db, run, user.ID)
	require.NoError(t, err)
	assert.False(t, passed)

	require.NoError(t, db.Create(&Submission{
		Title: "Lecture work", RunID: run.ID, ChapterID: &chapter.ID, LectureID: &lecture.ID, AuthorID: user.ID,
	}).Error)

	passed, err = Passed(db, run, user.ID)
	require.NoError(t, err)
	assert.True(t, passed)
}
