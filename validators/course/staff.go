package courseValidator

import (
	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func fieldErrors(err error) map[string]string {
	errors := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors[fieldError.Field()] = "Failed validation: " + fieldError.Tag()
		}
	}
	return errors
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string                 `json:"title"`
			Perex       string                 `json:"perex"`
			Description string                 `json:"description"`
			State       string                 `json:"state"`
			Options     map[string]interface{} `json:"options"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		body := struct {
			Title       string `validate:"required,min=3,max=250"`
			Description string `validate:"required,min=5"`
			State       string `validate:"omitempty,oneof=D O C P"`
		}{reqData.Title, reqData.Description, reqData.State}

		if err := validate.Struct(body); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

func CreateChapter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := slugParam(c, "courseSlug", "courseSlug", "Course slug"); !ok {
			return err
		}

		reqData := new(struct {
			Title                   string `json:"title"`
			Perex                   string `json:"perex"`
			Description             string `json:"description"`
			Length                  *int   `json:"length"`
			PreviousID              *uint  `json:"previous_id"`
			RequireSubmission       string `json:"require_submission"`
			RequireSubmissionReview string `json:"require_submission_review"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		body := struct {
			Title                   string `validate:"required,min=3,max=250"`
			Length                  *int   `validate:"omitempty,gte=0"`
			RequireSubmission       string `validate:"omitempty,oneof=D N C E"`
			RequireSubmissionReview string `validate:"omitempty,oneof=D N C E"`
		}{reqData.Title, reqData.Length, reqData.RequireSubmission, reqData.RequireSubmissionReview}

		if err := validate.Struct(body); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedChapter", reqData)
		return c.Next()
	}
}

func CreateLecture() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title                   string `json:"title"`
			Subtitle                string `json:"subtitle"`
			Description             string `json:"description"`
			Data                    string `json:"data"`
			LectureType             string `json:"lecture_type"`
			Order                   int    `json:"order"`
			RequireSubmission       string `json:"require_submission"`
			RequireSubmissionReview string `json:"require_submission_review"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		body := struct {
			Title                   string `validate:"required,min=3,max=250"`
			LectureType             string `validate:"omitempty,oneof=V T PF P F L"`
			RequireSubmission       string `validate:"omitempty,oneof=D N C E"`
			RequireSubmissionReview string `validate:"omitempty,oneof=D N C E"`
		}{reqData.Title, reqData.LectureType, reqData.RequireSubmission, reqData.RequireSubmissionReview}

		if err := validate.Struct(body); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedLecture", reqData)
		return c.Next()
	}
}

func CreateRun() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := slugParam(c, "courseSlug", "courseSlug", "Course slug"); !ok {
			return err
		}

		reqData := new(struct {
			Title   string                 `json:"title"`
			Perex   string                 `json:"perex"`
			Start   string                 `json:"start"` // YYYY-MM-DD
			Price   float64                `json:"price"`
			Limit   int                    `json:"limit"`
			Options map[string]interface{} `json:"options"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		body := struct {
			Title string  `validate:"required,min=3,max=250"`
			Start string  `validate:"required,datetime=2006-01-02"`
			Price float64 `validate:"gte=0"`
			Limit int     `validate:"gte=0"`
		}{reqData.Title, reqData.Start, reqData.Price, reqData.Limit}

		if err := validate.Struct(body); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedRun", reqData)
		return c.Next()
	}
}

func CreateSubscriptionLevel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			RunID       *uint   `json:"run_id"`
			CourseID    *uint   `json:"course_id"`
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Price       float64 `json:"price"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.RunID == nil && reqData.CourseID == nil {
			errors["run_id"] = "Level must be attached to a run or a course!"
		}

		body := struct {
			Title string  `validate:"required,min=3,max=250"`
			Price float64 `validate:"gte=0"`
		}{reqData.Title, reqData.Price}

		if err := validate.Struct(body); err != nil {
			for field, message := range fieldErrors(err) {
				errors[field] = message
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLevel", reqData)
		return c.Next()
	}
}

func CreateMeeting() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := slugParam(c, "runSlug", "runSlug", "Run slug"); !ok {
			return err
		}

		reqData := new(struct {
			LectureID   uint   `json:"lecture_id"`
			Start       string `json:"start"` // RFC 3339
			End         string `json:"end"`
			Link        string `json:"link"`
			Description string `json:"description"`
			LeaderID    *uint  `json:"leader_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		body := struct {
			LectureID uint   `validate:"required"`
			Start     string `validate:"required"`
			End       string `validate:"required"`
			Link      string `validate:"required,url"`
		}{reqData.LectureID, reqData.Start, reqData.End, reqData.Link}

		if err := validate.Struct(body); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedMeeting", reqData)
		return c.Next()
	}
}

func CreateCoupon() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Slug         string  `json:"slug"`
			ValidFrom    string  `json:"valid_from"`
			ValidTo      string  `json:"valid_to"`
			Limit        int     `json:"limit"`
			DiscountType string  `json:"discount_type"`
			Discount     float64 `json:"discount"`
			CourseIDs    []uint  `json:"course_ids"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		body := struct {
			Slug         string  `validate:"required,min=3,max=50"`
			ValidFrom    string  `validate:"required,datetime=2006-01-02"`
			ValidTo      string  `validate:"required,datetime=2006-01-02"`
			Limit        int     `validate:"gte=0"`
			DiscountType string  `validate:"required,oneof=F P"`
			Discount     float64 `validate:"gte=0"`
			CourseIDs    []uint  `validate:"required,min=1"`
		}{reqData.Slug, reqData.ValidFrom, reqData.ValidTo, reqData.Limit, reqData.DiscountType, reqData.Discount, reqData.CourseIDs}

		if err := validate.Struct(body); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedCouponCreate", reqData)
		return c.Next()
	}
}
