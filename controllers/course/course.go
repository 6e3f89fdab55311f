package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// GetOpenCourses lists all courses open for subscription.
func GetOpenCourses(c *fiber.Ctx) error {
	var courses []models.Course
	err := database.Database.Db.
		Where("state = ?", models.CourseStateOpen).
		Order("title asc").
		Find(&courses).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", courses)
}

// GetCourseDetails returns a course with its chapters and active runs.
func GetCourseDetails(c *fiber.Ctx) error {
	slug := c.Locals("courseSlug").(string)

	var course models.Course
	err := database.Database.Db.
		Preload("Chapters").
		Where("slug = ?", slug).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	if course.State != models.CourseStateOpen && course.State != models.CourseStateClosed {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	activeRuns, err := course.ActiveRuns(database.Database.Db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch runs!", nil)
	}

	length, err := course.Length(database.Database.Db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", fiber.Map{
		"course":      course,
		"length":      length,
		"self_paced":  length == 0,
		"active_runs": activeRuns,
	})
}
