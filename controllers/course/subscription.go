package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SubscribeToRun subscribes the user to a course run with an optional
// subscription level.
func SubscribeToRun(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	runSlug := c.Locals("runSlug").(string)
	run, err := loadRun(db, runSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	reqData, _ := c.Locals("validatedSubscribe").(*struct {
		SubscriptionLevelID *uint `json:"subscription_level_id"`
	})

	var levelID *uint
	if reqData != nil && reqData.SubscriptionLevelID != nil {
		levels, err := models.RunSubscriptionLevels(db, run)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch subscription levels!", nil)
		}
		for i := range levels {
			if levels[i].ID == *reqData.SubscriptionLevelID {
				levelID = reqData.SubscriptionLevelID
				break
			}
		}
		if levelID == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"subscription_level_id": "Selected subscription level is not offered for this course run!",
			})
		}
	}

	runUser, err := models.Subscribe(db, run, user.ID, levelID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRunFull):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Subscribed user's limit has been reached!", nil)
		case errors.Is(err, models.ErrSubscriptionWindowClosed):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not allowed to subscribe to course that has already started!", nil)
		case errors.Is(err, models.ErrRunFinished):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not allowed to subscribe to course that has already finished!", nil)
		case errors.Is(err, models.ErrAlreadySubscribed):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are already subscribed to this course run!", nil)
		case errors.Is(err, models.ErrAlreadySubscribedElsewhere):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are already subscribed in different course run!", nil)
		case errors.Is(err, models.ErrConcurrencyConflict):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Subscription conflicted with another request. Please try again!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to subscribe!", nil)
		}
	}

	prefix, err := run.SettingString(db, "COURSES_EMAIL_SUBJECT_PREFIX")
	if err == nil {
		utils.SendSubscriptionEmail(user.Email, user.Name, run.Title, prefix)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "You have been subscribed to the course run!", runUser)
}

// UnsubscribeFromRun removes the user's subscription, when allowed.
func UnsubscribeFromRun(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	runSlug := c.Locals("runSlug").(string)
	run, err := loadRun(db, runSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	if err := models.Unsubscribe(db, run, user.ID); err != nil {
		switch {
		case errors.Is(err, models.ErrUnsubscribeDisabled):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not allowed to unsubscribe from this course run!", nil)
		case errors.Is(err, models.ErrNotSubscribed):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are not subscribed to this course run!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unsubscribe!", nil)
		}
	}

	prefix, err := run.SettingString(db, "COURSES_EMAIL_SUBJECT_PREFIX")
	if err == nil {
		utils.SendUnsubscribedEmail(user.Email, user.Name, run.Title, prefix)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "You have been unsubscribed from the course run!", nil)
}

// GetPaymentInstructions returns the user's subscription records with owed
// and received amounts for a run.
func GetPaymentInstructions(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	runSlug := c.Locals("runSlug").(string)
	run, err := loadRun(db, runSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	var records []models.RunUser
	if err := db.Where("run_id = ? AND user_id = ?", run.ID, user.ID).Find(&records).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch subscriptions!", nil)
	}
	if len(records) == 0 {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not subscribed to this course!", nil)
	}

	total, err := models.UserPayment(db, run, user.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment instructions fetched successfully!", fiber.Map{
		"subscriptions": records,
		"total_payment": total,
	})
}

// ApplyCouponToRun applies a discount coupon to the user's subscription
// record for a run. A coupon can be applied at most once per record.
func ApplyCouponToRun(c *fiber.Ctx) error {
	db := database.Database.Db

	user, ok := requestUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	runSlug := c.Locals("runSlug").(string)
	run, err := loadRun(db, runSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course run not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course run!", nil)
	}

	reqData, ok := c.Locals("validatedCoupon").(*struct {
		Slug string `json:"slug"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var runUser models.RunUser
	err = db.Where("run_id = ? AND user_id = ?", run.ID, user.ID).
		Order("created_at asc").
		First(&runUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not subscribed to this course!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch subscription!", nil)
	}

	if err := models.ApplyCoupon(db, reqData.Slug, &runUser); err != nil {
		switch {
		case errors.Is(err, models.ErrCouponNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Coupon not found!", nil)
		case errors.Is(err, models.ErrCouponNotApplicable):
			return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Coupon can not be applied to this course run!", nil)
		case errors.Is(err, models.ErrCouponAlreadyApplied):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Coupon has already been applied!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to apply coupon!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupon applied successfully!", runUser)
}
