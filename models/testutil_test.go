package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&User{},
		&Course{},
		&Chapter{},
		&Lecture{},
		&Run{},
		&RunUser{},
		&SubscriptionLevel{},
		&Coupon{},
		&Meeting{},
		&Submission{},
		&Review{},
		&Certificate{},
	))
	return db
}

func pinToday(t *testing.T, date string) {
	t.Helper()

	previous := Today
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	require.NoError(t, err)

	Today = func() time.Time { return day }
	t.Cleanup(func() { Today = previous })
}

func date(t *testing.T, value string) time.Time {
	t.Helper()

	day, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	require.NoError(t, err)
	return day
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *User {
	t.Helper()

	user := &User{Name: email, Email: email, Role: role, Password: "irrelevant"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCourse(t *testing.T, db *gorm.DB, slug string, chapterLengths ...int) (*Course, []Chapter) {
	t.Helper()

	course := &Course{Title: slug, Slug: slug, Description: slug, State: CourseStateOpen}
	require.NoError(t, db.Create(course).Error)

	chapters := make([]Chapter, 0, len(chapterLengths))
	var previousID *uint
	for i, length := range chapterLengths {
		chapter := Chapter{
			Title:      slug,
			Slug:       slug + "-chapter-" + string(rune('a'+i)),
			CourseID:   course.ID,
			PreviousID: previousID,
			Length:     length,
		}
		require.NoError(t, db.Create(&chapter).Error)
		chapters = append(chapters, chapter)
		previousID = &chapters[len(chapters)-1].ID
	}

	course.Chapters = nil // force reload after chapters were added
	return course, chapters
}

func createRun(t *testing.T, db *gorm.DB, course *Course, slug, start string) *Run {
	t.Helper()

	run := &Run{Title: slug, Slug: slug, CourseID: course.ID, Start: date(t, start)}
	require.NoError(t, db.Create(run).Error)
	return run
}
