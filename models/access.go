package models

import (
	"time"

	"gorm.io/gorm"
)

// Actions a user can attempt on course content.
type Action string

const (
	ActionView   Action = "view"
	ActionSubmit Action = "submit"
	ActionReview Action = "review"
)

// ChapterAccess is the outcome of a permitted access check.
type ChapterAccess struct {
	Start time.Time
	End   time.Time
	// Ended flags "chapter has already ended" when viewing a passed chapter
	// is still allowed by settings.
	Ended bool
}

// VerifyRunAccess checks that the user may reach the run's content at all:
// an active subscription (staff bypasses this) and a completed payment on
// every leveled subscription record.
func VerifyRunAccess(db *gorm.DB, run *Run, user *User) error {
	if user == nil {
		return ErrNotSubscribed
	}

	if !user.IsStaff() {
		subscribed, err := run.IsSubscribed(db, user.ID)
		if err != nil {
			return err
		}
		if !subscribed {
			return ErrNotSubscribed
		}
	}

	var records []RunUser
	err := db.Where("run_id = ? AND user_id = ?", run.ID, user.ID).Find(&records).Error
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.SubscriptionLevelID != nil && record.Price > record.Payment {
			return ErrPaymentIncomplete
		}
	}
	return nil
}

// CheckChapterAccess decides whether the user may view or submit within a
// chapter of a run. It is a pure decision, callers perform the redirect or
// the write.
func CheckChapterAccess(db *gorm.DB, run *Run, chapter *Chapter, user *User, action Action) (*ChapterAccess, error) {
	if err := VerifyRunAccess(db, run, user); err != nil {
		return nil, err
	}

	start, end, err := chapter.RunDates(db, run)
	if err != nil {
		return nil, err
	}

	today := Today()
	access := &ChapterAccess{Start: start, End: end, Ended: today.After(end)}

	if today.Before(start) {
		return nil, ErrNotYetOpen
	}

	switch action {
	case ActionSubmit:
		policy := chapter.RequireSubmission
		if policy == SubmissionDisabled {
			return nil, ErrSubmissionDisabled
		}
		if access.Ended {
			allowed, err := run.SettingBool(db, "COURSES_ALLOW_SUBMISSION_TO_PASSED_CHAPTERS")
			if err != nil {
				return nil, err
			}
			if !allowed {
				return nil, ErrSubmissionWindowClosed
			}
		}
	default:
		if access.Ended {
			allowed, err := run.SettingBool(db, "COURSES_ALLOW_ACCESS_TO_PASSED_CHAPTERS")
			if err != nil {
				return nil, err
			}
			if !allowed {
				return nil, ErrChapterClosed
			}
		}
	}
	return access, nil
}

// CheckReviewAccess rejects reviews of the reviewer's own submissions.
func CheckReviewAccess(reviewerID uint, submission *Submission) error {
	if submission.AuthorID == reviewerID {
		return ErrSelfReviewForbidden
	}
	return nil
}
