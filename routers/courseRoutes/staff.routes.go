package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupStaffCourseRoutes sets up all staff course management routes
func SetupStaffCourseRoutes(app *fiber.App) {
	staffGroup := app.Group("/staff", middleware.JWTMiddleware, middleware.StaffMiddleware)

	// Course authoring
	staffGroup.Post("/course", validators.CreateCourse(), controllers.CreateCourse)
	staffGroup.Post("/course/:courseSlug/chapter", validators.CreateChapter(), controllers.CreateChapter)
	staffGroup.Post("/chapter/:chapterId/lecture", validators.ChapterID(), validators.CreateLecture(), controllers.CreateLecture)

	// Run scheduling
	staffGroup.Post("/course/:courseSlug/run", validators.CreateRun(), controllers.CreateRun)
	staffGroup.Post("/subscription-level", validators.CreateSubscriptionLevel(), controllers.CreateSubscriptionLevel)
	staffGroup.Post("/run/:runSlug/meeting", validators.CreateMeeting(), controllers.CreateMeeting)

	// Discounts
	staffGroup.Post("/coupon", validators.CreateCoupon(), controllers.CreateCoupon)
}
