package config

// CourseSettings holds the global defaults for course behaviour options.
// A Run can override any of these through its own or its course's Metadata
// "options" mapping, see models.Run.Setting.
var CourseSettings = map[string]interface{}{
	// In run details display also future chapters that are not available yet.
	"COURSES_SHOW_FUTURE_CHAPTERS": false,

	// Whether to deny or allow access to a chapter after its window has passed.
	"COURSES_ALLOW_ACCESS_TO_PASSED_CHAPTERS": true,

	// Whether submissions are still accepted after the chapter window has passed.
	"COURSES_ALLOW_SUBMISSION_TO_PASSED_CHAPTERS": false,

	// Whether users may subscribe to a run that has already started.
	"COURSES_ALLOW_SUBSCRIPTION_TO_RUNNING_COURSE": true,

	// Whether users may unsubscribe themselves from a run.
	"COURSES_ALLOW_USER_UNSUBSCRIBE": true,

	// Whether chapter detail (lectures, materials) is shown in run overview.
	"COURSES_DISPLAY_CHAPTER_DETAILS": true,

	"COURSES_EMAIL_SUBJECT_PREFIX": "[Courses] ",
}
