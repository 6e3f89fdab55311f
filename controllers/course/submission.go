package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func loadRunChapter(c *fiber.Ctx) (*models.Run, *models.Chapter, error) {
	db := database.Database.Db

	run, err := loadRun(db, c.Locals("runSlug").(string))
	if err != nil {
		return nil, nil, err
	}

	var chapter models.Chapter
	if err := db.Where("slug = ?", c.Locals("chapterSlug").(string)).First(&chapter).Error; err != nil {
		return nil, nil, err
	}
	return run, &chapter, nil
}

// SaveChapterSubmission creates or overwrites the user's submission for a
// chapter (or one of its lectures). A user keeps one submission per scope.
func SaveChapterSubmission(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	run, chapter, err := loadRunChapter(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run or chapter not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	if _, err := models.CheckChapterAccess(db, run, chapter, user, models.ActionSubmit); err != nil {
		return accessErrorResponse(c, run.Slug, err)
	}

	reqData, ok := c.Locals("validatedSubmission").(*struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Data        string `json:"data"`
		LectureID   *uint  `json:"lecture_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.LectureID != nil {
		var lecture models.Lecture
		if err := db.Where("id = ? AND chapter_id = ?", *reqData.LectureID, chapter.ID).First(&lecture).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found in this chapter!", nil)
		}
		if lecture.RequireSubmission == models.SubmissionDisabled {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Submissions are disabled for this lecture!", nil)
		}
	}

	// Re-submission overwrites instead of duplicating.
	var submission models.Submission
	query := db.Where("run_id = ? AND author_id = ? AND chapter_id = ?", run.ID, user.ID, chapter.ID)
	if reqData.LectureID != nil {
		query = query.Where("lecture_id = ?", *reqData.LectureID)
	} else {
		query = query.Where("lecture_id IS NULL")
	}
	err = query.First(&submission).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submission!", nil)
	}

	submission.Title = reqData.Title
	submission.Description = reqData.Description
	if reqData.Data != "" {
		submission.Data = reqData.Data
	}
	submission.RunID = run.ID
	submission.ChapterID = &chapter.ID
	submission.LectureID = reqData.LectureID
	submission.AuthorID = user.ID

	if err := db.Save(&submission).Error; err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return middleware.ValidationErrorResponse(c, map[string]string{validationErr.Field: validationErr.Message})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save submission!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission saved successfully!", submission)
}

// GetChapterSubmissions lists the user's own submissions for a chapter,
// along with their reviews.
func GetChapterSubmissions(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	run, chapter, err := loadRunChapter(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run or chapter not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	if _, err := models.CheckChapterAccess(db, run, chapter, user, models.ActionView); err != nil {
		return accessErrorResponse(c, run.Slug, err)
	}

	var submissions []models.Submission
	err = db.Where("run_id = ? AND author_id = ? AND chapter_id = ?", run.ID, user.ID, chapter.ID).
		Find(&submissions).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submissions!", nil)
	}

	result := make([]fiber.Map, 0, len(submissions))
	for _, submission := range submissions {
		var reviews []models.Review
		if err := db.Where("submission_id = ?", submission.ID).Find(&reviews).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch reviews!", nil)
		}
		result = append(result, fiber.Map{
			"submission": submission,
			"reviews":    reviews,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissions fetched successfully!", result)
}

// CreateReview records a peer/staff review of a submission. One review per
// (submission, author); own submissions can not be reviewed.
func CreateReview(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	submissionID := c.Locals("submissionID").(int)

	var submission models.Submission
	if err := db.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submission!", nil)
	}

	var run models.Run
	if err := db.Preload("Course").First(&run, submission.RunID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	if err := models.VerifyRunAccess(db, &run, user); err != nil {
		return accessErrorResponse(c, run.Slug, err)
	}
	if err := models.CheckReviewAccess(user.ID, &submission); err != nil {
		return accessErrorResponse(c, run.Slug, err)
	}

	reqData, ok := c.Locals("validatedReview").(*struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Accepted    bool   `json:"accepted"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	review := models.Review{
		Title:        reqData.Title,
		Description:  reqData.Description,
		SubmissionID: submission.ID,
		AuthorID:     user.ID,
		Accepted:     reqData.Accepted,
	}

	if err := db.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You have already reviewed this submission!", nil)
		}
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return middleware.ValidationErrorResponse(c, map[string]string{validationErr.Field: validationErr.Message})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save review!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review saved successfully!", review)
}
