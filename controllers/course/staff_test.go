package controllers

import (
	"testing"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSlugTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Course{}))
	return db
}

func TestUniqueSlug(t *testing.T) {
	db := newSlugTestDB(t)

	slug, err := uniqueSlug(db, &models.Course{}, "Go Basics")
	require.NoError(t, err)
	assert.Equal(t, "go-basics", slug)

	require.NoError(t, db.Create(&models.Course{Title: "Go Basics", Slug: "go-basics"}).Error)

	slug, err = uniqueSlug(db, &models.Course{}, "Go Basics")
	require.NoError(t, err)
	assert.Equal(t, "go-basics-2", slug)

	require.NoError(t, db.Create(&models.Course{Title: "Go Basics", Slug: "go-basics-2"}).Error)

	slug, err = uniqueSlug(db, &models.Course{}, "Go Basics")
	require.NoError(t, err)
	assert.Equal(t, "go-basics-3", slug)
}

func TestUniqueSlugPropagatesQueryErrors(t *testing.T) {
	db := newSlugTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.Course{}))

	// A failing lookup must not be mistaken for a free slug.
	_, err := uniqueSlug(db, &models.Course{}, "Go Basics")
	assert.Error(t, err)
}
