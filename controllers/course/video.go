package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func loadChapterLecture(c *fiber.Ctx, chapterID uint) (*models.Lecture, error) {
	var lecture models.Lecture
	err := database.Database.Db.
		Where("slug = ? AND chapter_id = ?", c.Locals("lectureSlug").(string), chapterID).
		First(&lecture).Error
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

// SaveVideoDuration stores the reported video duration on the lecture
// metadata. Playback sessions report it so watch percentages can be derived.
func SaveVideoDuration(c *fiber.Ctx) error {
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

	lecture, err := loadChapterLecture(c, chapter.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	reqData, ok := c.Locals("validatedVideoDuration").(*struct {
		VideoDuration float64 `json:"video_duration"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if lecture.Metadata == nil {
		lecture.Metadata = datatypes.JSONMap{}
	}
	lecture.Metadata["video_duration"] = reqData.VideoDuration

	if err := db.Save(lecture).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save video duration!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video duration saved!", nil)
}

// SaveVideoWatched merges newly reported watched time ranges into the user's
// submission for the lecture and recomputes the watched percentage.
func SaveVideoWatched(c *fiber.Ctx) error {
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

	lecture, err := loadChapterLecture(c, chapter.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lecture not found!", nil)
	}

	reqData, ok := c.Locals("validatedVideoWatched").(*struct {
		VideoWatchedTimeRange [][]float64 `json:"video_watched_time_range"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var submission models.Submission
	err = db.Where("run_id = ? AND author_id = ? AND lecture_id = ?", run.ID, user.ID, lecture.ID).
		First(&submission).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submission!", nil)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		submission = models.Submission{
			Title:     lecture.Title,
			RunID:     run.ID,
			ChapterID: &chapter.ID,
			LectureID: &lecture.ID,
			AuthorID:  user.ID,
		}
	}

	if submission.Metadata == nil {
		submission.Metadata = datatypes.JSONMap{}
	}

	// Ranges from a single playback session arrive already merged, ranges
	// from earlier sessions live in the stored metadata.
	stored := utils.IntervalsFromJSON(submission.Metadata["video_watched_time_range"])
	merged := utils.MergeIntervals(append(reqData.VideoWatchedTimeRange, stored...))
	submission.Metadata["video_watched_time_range"] = utils.IntervalsToJSON(merged)

	if lecture.Metadata != nil {
		if duration, ok := lecture.Metadata["video_duration"].(float64); ok && duration > 0 {
			submission.Metadata["video_watched_percent"] = utils.WatchedPercent(merged, duration)
		}
	}

	if err := db.Save(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save watched ranges!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Watched ranges saved!", fiber.Map{
		"video_watched_time_range": submission.Metadata["video_watched_time_range"],
		"video_watched_percent":    submission.Metadata["video_watched_percent"],
	})
}
