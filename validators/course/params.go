package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func slugParam(c *fiber.Ctx, param, local, label string) (bool, error) {
	value := strings.TrimSpace(c.Params(param))
	if value == "" {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, label+" is required!", nil)
	}
	c.Locals(local, value)
	return true, nil
}

func CourseSlug() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := slugParam(c, "courseSlug", "courseSlug", "Course slug"); !ok {
			return err
		}
		return c.Next()
	}
}

func RunSlug() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := slugParam(c, "runSlug", "runSlug", "Run slug"); !ok {
			return err
		}
		return c.Next()
	}
}

func RunChapterSlugs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := slugParam(c, "runSlug", "runSlug", "Run slug"); !ok {
			return err
		}
		if ok, err := slugParam(c, "chapterSlug", "chapterSlug", "Chapter slug"); !ok {
			return err
		}
		return c.Next()
	}
}

func RunChapterLectureSlugs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := slugParam(c, "runSlug", "runSlug", "Run slug"); !ok {
			return err
		}
		if ok, err := slugParam(c, "chapterSlug", "chapterSlug", "Chapter slug"); !ok {
			return err
		}
		if ok, err := slugParam(c, "lectureSlug", "lectureSlug", "Lecture slug"); !ok {
			return err
		}
		return c.Next()
	}
}

func ChapterID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		chapterID, err := strconv.Atoi(strings.TrimSpace(c.Params("chapterId")))
		if err != nil || chapterID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid chapter ID!", nil)
		}
		c.Locals("chapterID", chapterID)
		return c.Next()
	}
}

func SubmissionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		submissionID, err := strconv.Atoi(strings.TrimSpace(c.Params("submissionId")))
		if err != nil || submissionID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid submission ID!", nil)
		}
		c.Locals("submissionID", submissionID)
		return c.Next()
	}
}

func CertificateUUID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		value := strings.TrimSpace(c.Params("uuid"))
		if _, err := uuid.Parse(value); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate UUID!", nil)
		}
		c.Locals("certificateUUID", value)
		return c.Next()
	}
}
