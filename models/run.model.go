package models

import (
	"errors"
	"fmt"
	"time"

	"lms/config"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Run is a scheduled offering of a Course.
type Run struct {
	gorm.Model
	Title string    `json:"title"`
	Slug  string    `json:"slug" gorm:"uniqueIndex;not null"`
	Perex string    `json:"perex"`
	Start time.Time `json:"start" gorm:"type:date;not null"`
	// End is derived from Start and the course length on save whenever the
	// course has any chapter length set.
	End      *time.Time `json:"end" gorm:"type:date"`
	CourseID uint       `json:"course_id" gorm:"index;not null"`
	Course   Course     `json:"course,omitempty"`
	Price    float64    `json:"price" gorm:"default:0"`
	// Limit is the max number of attendees. 0 means no limit.
	Limit     int               `json:"limit" gorm:"default:0"`
	ManagerID *uint             `json:"manager_id"`
	Metadata  datatypes.JSONMap `json:"metadata"`
}

// BeforeSave derives End from the course length unless the course is
// self-paced.
func (r *Run) BeforeSave(tx *gorm.DB) error {
	course := r.Course
	if course.ID == 0 {
		if err := tx.First(&course, r.CourseID).Error; err != nil {
			return err
		}
	}

	length, err := course.Length(tx)
	if err != nil {
		return err
	}

	if length != 0 {
		end := DateOf(r.Start).AddDate(0, 0, length-1)
		r.End = &end
	}
	return nil
}

// IsPastDue reports whether the run window has already passed.
func (r *Run) IsPastDue() bool {
	return r.End != nil && Today().After(*r.End)
}

// IsFull reports whether the attendee limit has been reached. Runs with
// limit 0 are never full.
func (r *Run) IsFull(db *gorm.DB) (bool, error) {
	if r.Limit == 0 {
		return false, nil
	}

	var subscribed int64
	err := db.Model(&RunUser{}).
		Distinct("user_id").
		Where("run_id = ?", r.ID).
		Count(&subscribed).Error
	if err != nil {
		return false, err
	}
	return int64(r.Limit) <= subscribed, nil
}

// IsSubscribed reports whether the user holds a subscription record for this
// run. Anonymous callers (userID 0) are never subscribed.
func (r *Run) IsSubscribed(db *gorm.DB, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	var count int64
	err := db.Model(&RunUser{}).
		Where("run_id = ? AND user_id = ?", r.ID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsSubscribedInDifferentActiveRun reports whether the user is subscribed to
// another run of the same course that is still active. Used to block double
// subscription across runs of one course.
func (r *Run) IsSubscribedInDifferentActiveRun(db *gorm.DB, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	var count int64
	err := db.Model(&RunUser{}).
		Joins("JOIN runs ON runs.id = run_users.run_id").
		Where("run_users.user_id = ?", userID).
		Where("runs.course_id = ? AND runs.id != ?", r.CourseID, r.ID).
		Where(`runs."end" >= ? OR runs."end" IS NULL`, Today()).
		Count(&count).Error
	return count > 0, err
}

// Setting resolves a configuration option with override precedence: run
// metadata, then course metadata, then the compiled defaults. Unknown keys
// are a configuration bug and surface as ErrUnknownSetting.
func (r *Run) Setting(db *gorm.DB, name string) (interface{}, error) {
	if value, ok := metadataOption(r.Metadata, name); ok {
		return value, nil
	}

	course := r.Course
	if course.ID == 0 {
		if err := db.First(&course, r.CourseID).Error; err != nil {
			return nil, err
		}
		r.Course = course
	}
	if value, ok := metadataOption(course.Metadata, name); ok {
		return value, nil
	}

	if value, ok := config.CourseSettings[name]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, name)
}

// SettingBool resolves a boolean option. Non-boolean values resolve to false.
func (r *Run) SettingBool(db *gorm.DB, name string) (bool, error) {
	value, err := r.Setting(db, name)
	if err != nil {
		return false, err
	}
	enabled, _ := value.(bool)
	return enabled, nil
}

// SettingString resolves a string option. Non-string values resolve to "".
func (r *Run) SettingString(db *gorm.DB, name string) (string, error) {
	value, err := r.Setting(db, name)
	if err != nil {
		return "", err
	}
	text, _ := value.(string)
	return text, nil
}

func metadataOption(metadata datatypes.JSONMap, name string) (interface{}, bool) {
	if metadata == nil {
		return nil, false
	}
	options, ok := metadata["options"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, ok := options[name]
	return value, ok
}

// RunUser is the subscription record between a User and a Run. A user can
// hold one record per chosen subscription level.
type RunUser struct {
	gorm.Model
	RunID               uint    `json:"run_id" gorm:"index;not null"`
	UserID              uint    `json:"user_id" gorm:"index;not null"`
	SubscriptionLevelID *uint   `json:"subscription_level_id"`
	Price               float64 `json:"price" gorm:"default:0"`
	Payment             float64 `json:"payment" gorm:"default:0"`
	// PriceBeforeDiscount is set exactly once, when a coupon is applied. A
	// non-nil value therefore blocks any further coupon.
	PriceBeforeDiscount *float64 `json:"price_before_discount"`
	DiscountCouponID    *uint    `json:"discount_coupon_id"`
}

// SubscriptionLevel is a priced tier attached to a Run, or to a Course as a
// fallback default for runs that define none.
type SubscriptionLevel struct {
	gorm.Model
	RunID       *uint   `json:"run_id" gorm:"index"`
	CourseID    *uint   `json:"course_id" gorm:"index"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price" gorm:"default:0"`
}

// RunSubscriptionLevels returns the levels offered for a run, falling back to
// the course-wide levels when the run defines none.
func RunSubscriptionLevels(db *gorm.DB, run *Run) ([]SubscriptionLevel, error) {
	var levels []SubscriptionLevel
	if err := db.Where("run_id = ?", run.ID).Find(&levels).Error; err != nil {
		return nil, err
	}
	if len(levels) > 0 {
		return levels, nil
	}
	err := db.Where("course_id = ? AND run_id IS NULL", run.CourseID).Find(&levels).Error
	return levels, err
}

// Meeting is a scheduled live session tied to a Run and a live Lecture.
type Meeting struct {
	gorm.Model
	RunID       uint      `json:"run_id" gorm:"index;not null"`
	LectureID   uint      `json:"lecture_id" gorm:"index;not null"`
	Start       time.Time `json:"start" gorm:"not null"`
	End         time.Time `json:"end" gorm:"not null"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	LeaderID    *uint     `json:"leader_id"`
	OrganizerID uint      `json:"organizer_id"`
}

// BeforeSave checks that the meeting window is sane and falls within its
// lecture's chapter window for the run.
func (m *Meeting) BeforeSave(tx *gorm.DB) error {
	if !m.Start.Before(m.End) {
		return &ValidationError{Field: "end", Message: "Meeting has to end after it starts!"}
	}

	var lecture Lecture
	if err := tx.First(&lecture, m.LectureID).Error; err != nil {
		return err
	}
	var chapter Chapter
	if err := tx.First(&chapter, lecture.ChapterID).Error; err != nil {
		return err
	}
	var run Run
	if err := tx.First(&run, m.RunID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationError{Field: "run", Message: "Selected run does not exist!"}
		}
		return err
	}

	start, end, err := chapter.RunDates(tx, &run)
	if err != nil {
		return err
	}
	if DateOf(m.Start).Before(start) || DateOf(m.End).After(end) {
		return &ValidationError{Field: "start", Message: "Meeting has to take place while its chapter is open!"}
	}
	return nil
}
