package utils

import (
	"log"
	"time"

	"lms/database"
	"lms/models"

	"github.com/robfig/cron/v3"
)

// InitializeNotifyScheduler sets up the daily course notification jobs.
func InitializeNotifyScheduler() {
	log.Println("[NOTIFY-SCHEDULER] Initializing notification scheduler...")

	c := cron.New()

	// Run daily at 8 AM
	c.AddFunc("0 8 * * *", func() {
		log.Println("[NOTIFY-SCHEDULER] Running daily notification check...")
		NotifyRunStarted()
		NotifyChapterOpen()
		NotifyMeetingStarts()
	})

	// Record incoming bank transfers on subscriptions every hour
	c.AddFunc("@hourly", VerifyBankPayments)

	c.Start()
	log.Println("[NOTIFY-SCHEDULER] Notification scheduler started - runs daily at 8 AM")
}

// NotifyRunStarted emails subscribed users of runs that start today.
func NotifyRunStarted() {
	db := database.Database.Db
	today := models.Today()

	var runs []models.Run
	if err := db.Where("start = ?", today).Find(&runs).Error; err != nil {
		log.Printf("[NOTIFY-SCHEDULER] Error fetching started runs: %v", err)
		return
	}

	for _, run := range runs {
		prefix, err := run.SettingString(db, "COURSES_EMAIL_SUBJECT_PREFIX")
		if err != nil {
			log.Printf("[NOTIFY-SCHEDULER] Error resolving subject prefix: %v", err)
			continue
		}
		for _, user := range subscribedUsers(run.ID) {
			SendRunStartedEmail(user.Email, user.Name, run.Title, prefix)
		}
	}
}

// NotifyChapterOpen emails subscribed users about chapters whose window
// starts today.
func NotifyChapterOpen() {
	db := database.Database.Db
	today := models.Today()

	var runs []models.Run
	err := db.Where(`start <= ? AND ("end" >= ? OR "end" IS NULL)`, today, today).Find(&runs).Error
	if err != nil {
		log.Printf("[NOTIFY-SCHEDULER] Error fetching active runs: %v", err)
		return
	}

	for _, run := range runs {
		var chapters []models.Chapter
		if err := db.Where("course_id = ?", run.CourseID).Find(&chapters).Error; err != nil {
			log.Printf("[NOTIFY-SCHEDULER] Error fetching chapters: %v", err)
			continue
		}

		prefix, err := run.SettingString(db, "COURSES_EMAIL_SUBJECT_PREFIX")
		if err != nil {
			log.Printf("[NOTIFY-SCHEDULER] Error resolving subject prefix: %v", err)
			continue
		}

		for i := range chapters {
			start, _, err := chapters[i].RunDates(db, &run)
			if err != nil {
				log.Printf("[NOTIFY-SCHEDULER] Error computing chapter dates: %v", err)
				continue
			}
			if !start.Equal(today) {
				continue
			}
			for _, user := range subscribedUsers(run.ID) {
				SendChapterOpenEmail(user.Email, user.Name, run.Title, chapters[i].Title, prefix)
			}
		}
	}
}

// NotifyMeetingStarts emails subscribed users about meetings starting within
// the next 24 hours.
func NotifyMeetingStarts() {
	db := database.Database.Db
	now := time.Now()

	var meetings []models.Meeting
	err := db.Where("start BETWEEN ? AND ?", now, now.Add(24*time.Hour)).Find(&meetings).Error
	if err != nil {
		log.Printf("[NOTIFY-SCHEDULER] Error fetching meetings: %v", err)
		return
	}

	for _, meeting := range meetings {
		var run models.Run
		if err := db.First(&run, meeting.RunID).Error; err != nil {
			continue
		}
		prefix, err := run.SettingString(db, "COURSES_EMAIL_SUBJECT_PREFIX")
		if err != nil {
			continue
		}
		for _, user := range subscribedUsers(run.ID) {
			SendMeetingEmail(user.Email, user.Name, run.Title, meeting.Link, prefix)
		}
	}
}

func subscribedUsers(runID uint) []models.User {
	db := database.Database.Db

	var users []models.User
	err := db.Model(&models.User{}).
		Joins("JOIN run_users ON run_users.user_id = users.id").
		Where("run_users.run_id = ?", runID).
		Distinct("users.*").
		Find(&users).Error
	if err != nil {
		log.Printf("[NOTIFY-SCHEDULER] Error fetching subscribed users: %v", err)
		return nil
	}
	return users
}
