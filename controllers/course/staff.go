package controllers

import (
	"errors"
	"fmt"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func uniqueSlug(db *gorm.DB, model interface{}, title string) (string, error) {
	base := utils.Slugify(title)
	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := db.Model(model).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func validationResponse(c *fiber.Ctx, err error) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return middleware.ValidationErrorResponse(c, map[string]string{validationErr.Field: validationErr.Message})
	}
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save record!", nil)
}

// CreateCourse creates a course in draft state.
func CreateCourse(c *fiber.Ctx) error {
	db := database.Database.Db

	reqData, ok := c.Locals("validatedCourse").(*struct {
		Title       string                 `json:"title"`
		Perex       string                 `json:"perex"`
		Description string                 `json:"description"`
		State       string                 `json:"state"`
		Options     map[string]interface{} `json:"options"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	slug, err := uniqueSlug(db, &models.Course{}, reqData.Title)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save record!", nil)
	}

	course := models.Course{
		Title:       reqData.Title,
		Slug:        slug,
		Perex:       reqData.Perex,
		Description: reqData.Description,
	}
	if reqData.State != "" {
		course.State = reqData.State
	}
	if reqData.Options != nil {
		course.Metadata = datatypes.JSONMap{"options": reqData.Options}
	}

	if err := db.Create(&course).Error; err != nil {
		return validationResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// CreateChapter adds a chapter to a course, optionally linked after a
// previous chapter. The chain is validated on save.
func CreateChapter(c *fiber.Ctx) error {
	db := database.Database.Db
	courseSlug := c.Locals("courseSlug").(string)

	var course models.Course
	if err := db.Where("slug = ?", courseSlug).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedChapter").(*struct {
		Title                   string `json:"title"`
		Perex                   string `json:"perex"`
		Description             string `json:"description"`
		Length                  *int   `json:"length"`
		PreviousID              *uint  `json:"previous_id"`
		RequireSubmission       string `json:"require_submission"`
		RequireSubmissionReview string `json:"require_submission_review"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	slug, err := uniqueSlug(db, &models.Chapter{}, reqData.Title)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save record!", nil)
	}

	chapter := models.Chapter{
		Title:       reqData.Title,
		Slug:        slug,
		Perex:       reqData.Perex,
		Description: reqData.Description,
		CourseID:    course.ID,
		PreviousID:  reqData.PreviousID,
	}
	if reqData.Length != nil {
		chapter.Length = *reqData.Length
	} else {
		chapter.Length = 7
	}
	if reqData.RequireSubmission != "" {
		chapter.RequireSubmission = reqData.RequireSubmission
	}
	if reqData.RequireSubmissionReview != "" {
		chapter.RequireSubmissionReview = reqData.RequireSubmissionReview
	}

	if err := db.Create(&chapter).Error; err != nil {
		return validationResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Chapter created successfully!", chapter)
}

// CreateLecture adds a lecture to a chapter.
func CreateLecture(c *fiber.Ctx) error {
	db := database.Database.Db
	chapterID := c.Locals("chapterID").(int)

	var chapter models.Chapter
	if err := db.First(&chapter, chapterID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
	}

	reqData, ok := c.Locals("validatedLecture").(*struct {
		Title                   string `json:"title"`
		Subtitle                string `json:"subtitle"`
		Description             string `json:"description"`
		Data                    string `json:"data"`
		LectureType             string `json:"lecture_type"`
		Order                   int    `json:"order"`
		RequireSubmission       string `json:"require_submission"`
		RequireSubmissionReview string `json:"require_submission_review"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	slug, err := uniqueSlug(db, &models.Lecture{}, reqData.Title)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save record!", nil)
	}

	lecture := models.Lecture{
		Title:       reqData.Title,
		Slug:        slug,
		Subtitle:    reqData.Subtitle,
		Description: reqData.Description,
		Data:        reqData.Data,
		ChapterID:   chapter.ID,
		Order:       reqData.Order,
	}
	if reqData.LectureType != "" {
		lecture.LectureType = reqData.LectureType
	}
	if reqData.RequireSubmission != "" {
		lecture.RequireSubmission = reqData.RequireSubmission
	}
	if reqData.RequireSubmissionReview != "" {
		lecture.RequireSubmissionReview = reqData.RequireSubmissionReview
	}

	if err := db.Create(&lecture).Error; err != nil {
		return validationResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lecture created successfully!", lecture)
}

// CreateRun schedules a new run of a course. The end date is derived from
// the course length on save.
func CreateRun(c *fiber.Ctx) error {
	db := database.Database.Db
	courseSlug := c.Locals("courseSlug").(string)

	var course models.Course
	if err := db.Where("slug = ?", courseSlug).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedRun").(*struct {
		Title   string                 `json:"title"`
		Perex   string                 `json:"perex"`
		Start   string                 `json:"start"` // YYYY-MM-DD
		Price   float64                `json:"price"`
		Limit   int                    `json:"limit"`
		Options map[string]interface{} `json:"options"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	start, err := parseDate(reqData.Start)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"start": "Start date must be in YYYY-MM-DD format!"})
	}

	slug, err := uniqueSlug(db, &models.Run{}, reqData.Title)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save record!", nil)
	}

	userID, _ := c.Locals("userId").(uint)
	run := models.Run{
		Title:     reqData.Title,
		Slug:      slug,
		Perex:     reqData.Perex,
		Start:     start,
		CourseID:  course.ID,
		Price:     reqData.Price,
		Limit:     reqData.Limit,
		ManagerID: &userID,
	}
	if reqData.Options != nil {
		run.Metadata = datatypes.JSONMap{"options": reqData.Options}
	}

	if err := db.Create(&run).Error; err != nil {
		return validationResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course run created successfully!", run)
}

// CreateSubscriptionLevel attaches a priced tier to a run, or to a course as
// a default for runs without own levels.
func CreateSubscriptionLevel(c *fiber.Ctx) error {
	db := database.Database.Db

	reqData, ok := c.Locals("validatedLevel").(*struct {
		RunID       *uint   `json:"run_id"`
		CourseID    *uint   `json:"course_id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	level := models.SubscriptionLevel{
		RunID:       reqData.RunID,
		CourseID:    reqData.CourseID,
		Title:       reqData.Title,
		Description: reqData.Description,
		Price:       reqData.Price,
	}
	if err := db.Create(&level).Error; err != nil {
		return validationResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Subscription level created successfully!", level)
}

// CreateMeeting schedules a live session within a run. The meeting must fit
// inside its lecture's chapter window.
func CreateMeeting(c *fiber.Ctx) error {
	db := database.Database.Db
	runSlug := c.Locals("runSlug").(string)

	run, err := loadRun(db, runSlug)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
	}

	reqData, ok := c.Locals("validatedMeeting").(*struct {
		LectureID   uint   `json:"lecture_id"`
		Start       string `json:"start"` // RFC 3339
		End         string `json:"end"`
		Link        string `json:"link"`
		Description string `json:"description"`
		LeaderID    *uint  `json:"leader_id"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	start, err := parseTimestamp(reqData.Start)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"start": "Start must be an RFC 3339 timestamp!"})
	}
	end, err := parseTimestamp(reqData.End)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"end": "End must be an RFC 3339 timestamp!"})
	}

	userID, _ := c.Locals("userId").(uint)
	meeting := models.Meeting{
		RunID:       run.ID,
		LectureID:   reqData.LectureID,
		Start:       start,
		End:         end,
		Link:        reqData.Link,
		Description: reqData.Description,
		LeaderID:    reqData.LeaderID,
		OrganizerID: userID,
	}

	if err := db.Create(&meeting).Error; err != nil {
		return validationResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Meeting created successfully!", meeting)
}

// CreateCoupon creates a discount coupon for selected courses.
func CreateCoupon(c *fiber.Ctx) error {
	db := database.Database.Db

	reqData, ok := c.Locals("validatedCouponCreate").(*struct {
		Slug         string  `json:"slug"`
		ValidFrom    string  `json:"valid_from"`
		ValidTo      string  `json:"valid_to"`
		Limit        int     `json:"limit"`
		DiscountType string  `json:"discount_type"`
		Discount     float64 `json:"discount"`
		CourseIDs    []uint  `json:"course_ids"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	validFrom, err := parseDate(reqData.ValidFrom)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"valid_from": "Date must be in YYYY-MM-DD format!"})
	}
	validTo, err := parseDate(reqData.ValidTo)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"valid_to": "Date must be in YYYY-MM-DD format!"})
	}

	var courses []models.Course
	if err := db.Find(&courses, reqData.CourseIDs).Error; err != nil || len(courses) != len(reqData.CourseIDs) {
		return middleware.ValidationErrorResponse(c, map[string]string{"course_ids": "One or more courses do not exist!"})
	}

	coupon := models.Coupon{
		Slug:         reqData.Slug,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		Limit:        reqData.Limit,
		DiscountType: reqData.DiscountType,
		Discount:     reqData.Discount,
		Courses:      courses,
	}

	if err := db.Create(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Coupon slug already exists!", nil)
		}
		return validationResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Coupon created successfully!", coupon)
}
