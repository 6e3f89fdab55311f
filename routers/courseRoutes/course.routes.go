package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Course listing and details (open courses)
	courseGroup.Get("/list", controllers.GetOpenCourses)
	courseGroup.Get("/:courseSlug", validators.CourseSlug(), controllers.GetCourseDetails)

	runGroup := app.Group("/run")

	// Run and chapter browsing
	runGroup.Get("/:runSlug", middleware.JWTMiddleware, validators.RunSlug(), controllers.GetRunDetails)
	runGroup.Get("/:runSlug/chapter/:chapterSlug", middleware.JWTMiddleware, validators.RunChapterSlugs(), controllers.GetChapterDetails)

	// Subscription
	runGroup.Post("/:runSlug/subscribe", middleware.JWTMiddleware, validators.RunSlug(), validators.Subscribe(), controllers.SubscribeToRun)
	runGroup.Post("/:runSlug/unsubscribe", middleware.JWTMiddleware, validators.RunSlug(), controllers.UnsubscribeFromRun)
	runGroup.Get("/:runSlug/payment", middleware.JWTMiddleware, validators.RunSlug(), controllers.GetPaymentInstructions)
	runGroup.Post("/:runSlug/coupon", middleware.JWTMiddleware, validators.RunSlug(), validators.ApplyCoupon(), controllers.ApplyCouponToRun)

	// Submissions and reviews
	runGroup.Post("/:runSlug/chapter/:chapterSlug/submission", middleware.JWTMiddleware, validators.RunChapterSlugs(), validators.SaveSubmission(), controllers.SaveChapterSubmission)
	runGroup.Get("/:runSlug/chapter/:chapterSlug/submission", middleware.JWTMiddleware, validators.RunChapterSlugs(), controllers.GetChapterSubmissions)

	submissionGroup := app.Group("/submission")
	submissionGroup.Post("/:submissionId/review", middleware.JWTMiddleware, validators.SubmissionID(), validators.CreateReview(), controllers.CreateReview)

	// Video analytics
	runGroup.Post("/:runSlug/chapter/:chapterSlug/lecture/:lectureSlug/video-duration", middleware.JWTMiddleware, validators.RunChapterLectureSlugs(), validators.VideoDuration(), controllers.SaveVideoDuration)
	runGroup.Post("/:runSlug/chapter/:chapterSlug/lecture/:lectureSlug/video-watched", middleware.JWTMiddleware, validators.RunChapterLectureSlugs(), validators.VideoWatched(), controllers.SaveVideoWatched)

	// Certificates
	runGroup.Post("/:runSlug/certificate", middleware.JWTMiddleware, validators.RunSlug(), controllers.GenerateCertificate)

	certificateGroup := app.Group("/certificate")
	certificateGroup.Get("/list", middleware.JWTMiddleware, controllers.GetUserCertificates)
	certificateGroup.Get("/:uuid", validators.CertificateUUID(), controllers.GetCertificate)
}
