package courseValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

func SaveSubmission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Data        string `json:"data"`
			LectureID   *uint  `json:"lecture_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}

		if reqData.LectureID != nil && *reqData.LectureID == 0 {
			errors["lecture_id"] = "Invalid lecture!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}

func CreateReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Accepted    bool   `json:"accepted"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

func VideoDuration() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			VideoDuration float64 `json:"video_duration"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.VideoDuration <= 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"video_duration": "Video duration must be greater than 0!",
			})
		}

		c.Locals("validatedVideoDuration", reqData)
		return c.Next()
	}
}

func VideoWatched() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			VideoWatchedTimeRange [][]float64 `json:"video_watched_time_range"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.VideoWatchedTimeRange) == 0 {
			errors["video_watched_time_range"] = "At least one watched range is required!"
		}
		for _, interval := range reqData.VideoWatchedTimeRange {
			if len(interval) != 2 || interval[0] < 0 || interval[1] < interval[0] {
				errors["video_watched_time_range"] = "Watched ranges must be [start, end] pairs with start <= end!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedVideoWatched", reqData)
		return c.Next()
	}
}
