package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// loadRun fetches a run by slug with its course preloaded.
func loadRun(db *gorm.DB, slug string) (*models.Run, error) {
	var run models.Run
	err := db.Preload("Course").Where("slug = ?", slug).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// requestUser loads the authenticated user row.
func requestUser(c *fiber.Ctx) (*models.User, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, false
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// accessErrorResponse maps guard errors onto HTTP responses. Payment
// failures carry a redirect hint to the payment instructions flow.
func accessErrorResponse(c *fiber.Ctx, runSlug string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotSubscribed):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not subscribed to this course!", nil)
	case errors.Is(err, models.ErrPaymentIncomplete):
		return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false,
			"You need to finish the payment in order to continue to the course.", fiber.Map{
				"redirect": "/run/" + runSlug + "/payment",
			})
	case errors.Is(err, models.ErrNotYetOpen):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Chapter is not open yet!", nil)
	case errors.Is(err, models.ErrChapterClosed):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Chapter has already ended!", nil)
	case errors.Is(err, models.ErrSubmissionDisabled):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Submissions are disabled for this chapter!", nil)
	case errors.Is(err, models.ErrSubmissionWindowClosed):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Chapter has already ended... Submission is not allowed.", nil)
	case errors.Is(err, models.ErrSelfReviewForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can not review your own submission!", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check course access!", nil)
	}
}

// GetRunDetails returns a run with its chapters and their computed windows.
// Future and passed chapters are filtered according to the run's settings.
func GetRunDetails(c *fiber.Ctx) error {
	db := database.Database.Db
	slug := c.Locals("runSlug").(string)

	run, err := loadRun(db, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	showFuture, err := run.SettingBool(db, "COURSES_SHOW_FUTURE_CHAPTERS")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to resolve course settings!", nil)
	}
	allowPassed, err := run.SettingBool(db, "COURSES_ALLOW_ACCESS_TO_PASSED_CHAPTERS")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to resolve course settings!", nil)
	}
	showDetails, err := run.SettingBool(db, "COURSES_DISPLAY_CHAPTER_DETAILS")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to resolve course settings!", nil)
	}

	query := db.Where("course_id = ?", run.CourseID)
	if showDetails {
		query = query.Preload("Lectures")
	}
	var chapters []models.Chapter
	if err := query.Find(&chapters).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch chapters!", nil)
	}

	today := models.Today()
	visible := make([]fiber.Map, 0, len(chapters))
	for i := range chapters {
		start, end, err := chapters[i].RunDates(db, run)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute chapter dates!", nil)
		}

		if (showFuture || !start.After(today)) && (allowPassed || !end.Before(today)) {
			visible = append(visible, fiber.Map{
				"chapter": chapters[i],
				"start":   start,
				"end":     end,
				"passed":  end.Before(today),
			})
		}
	}

	subscribed := false
	if user, ok := requestUser(c); ok {
		subscribed, _ = run.IsSubscribed(db, user.ID)
	}

	levels, err := models.RunSubscriptionLevels(db, run)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch subscription levels!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course run fetched successfully!", fiber.Map{
		"run":                 run,
		"chapters":            visible,
		"subscribed":          subscribed,
		"subscription_levels": levels,
	})
}

// GetChapterDetails returns a chapter of a run after passing the access
// guard: subscription, payment and date-window checks.
func GetChapterDetails(c *fiber.Ctx) error {
	db := database.Database.Db
	runSlug := c.Locals("runSlug").(string)
	chapterSlug := c.Locals("chapterSlug").(string)

	run, err := loadRun(db, runSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	var chapter models.Chapter
	if err := db.Preload("Lectures").Where("slug = ?", chapterSlug).First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch chapter!", nil)
	}

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	access, err := models.CheckChapterAccess(db, run, &chapter, user, models.ActionView)
	if err != nil {
		return accessErrorResponse(c, runSlug, err)
	}

	var meetings []models.Meeting
	lectureIDs := make([]uint, 0, len(chapter.Lectures))
	for _, lecture := range chapter.Lectures {
		lectureIDs = append(lectureIDs, lecture.ID)
	}
	if len(lectureIDs) > 0 {
		if err := db.Where("run_id = ? AND lecture_id IN ?", run.ID, lectureIDs).Find(&meetings).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch meetings!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter fetched successfully!", fiber.Map{
		"run":      run,
		"chapter":  chapter,
		"start":    access.Start,
		"end":      access.End,
		"ended":    access.Ended,
		"meetings": meetings,
	})
}
