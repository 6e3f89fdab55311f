package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is a user's work product against a run, optionally scoped to a
// chapter and/or lecture. A user keeps at most one submission per scope,
// re-submitting overwrites it.
type Submission struct {
	gorm.Model
	Title       string `json:"title"`
	Description string `json:"description"`
	Data        string `json:"data"` // uploaded proof of work reference
	RunID       uint   `json:"run_id" gorm:"index;not null"`
	ChapterID   *uint  `json:"chapter_id" gorm:"index"`
	LectureID   *uint  `json:"lecture_id" gorm:"index"`
	AuthorID    uint   `json:"author_id" gorm:"index;not null"`
	// Metadata carries analytics such as "video_watched_time_range" and the
	// derived "video_watched_percent".
	Metadata datatypes.JSONMap `json:"metadata"`
}

// BeforeSave checks that the chapter and lecture references stay within the
// submission's course.
func (s *Submission) BeforeSave(tx *gorm.DB) error {
	var run Run
	if err := tx.First(&run, s.RunID).Error; err != nil {
		return err
	}

	if s.ChapterID != nil {
		var chapter Chapter
		if err := tx.First(&chapter, *s.ChapterID).Error; err != nil {
			return err
		}
		if chapter.CourseID != run.CourseID {
			return &ValidationError{Field: "chapter", Message: "Selected chapter does not belong to submission's course."}
		}

		if s.LectureID != nil {
			var lecture Lecture
			if err := tx.First(&lecture, *s.LectureID).Error; err != nil {
				return err
			}
			if lecture.ChapterID != chapter.ID {
				return &ValidationError{Field: "lecture", Message: "Selected lecture does not belong to selected chapter."}
			}
		}
		return nil
	}

	if s.LectureID != nil {
		var count int64
		err := tx.Model(&Lecture{}).
			Joins("JOIN chapters ON chapters.id = lectures.chapter_id").
			Where("lectures.id = ? AND chapters.course_id = ?", *s.LectureID, run.CourseID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return &ValidationError{Field: "lecture", Message: "Selected lecture does not belong to submission's course."}
		}
	}
	return nil
}

// Review is a staff/peer evaluation of one submission. One review per
// (submission, author); authors can not review themselves.
type Review struct {
	gorm.Model
	Title        string `json:"title"`
	Description  string `json:"description"`
	SubmissionID uint   `json:"submission_id" gorm:"not null;uniqueIndex:idx_reviews_submission_author"`
	AuthorID     uint   `json:"author_id" gorm:"not null;uniqueIndex:idx_reviews_submission_author"`
	// Accepted marks the submission as acceptable. If false the reviewee has
	// to submit again.
	Accepted bool `json:"accepted"`
}

func (r *Review) BeforeSave(tx *gorm.DB) error {
	var submission Submission
	if err := tx.First(&submission, r.SubmissionID).Error; err != nil {
		return err
	}
	if submission.AuthorID == r.AuthorID {
		return &ValidationError{Field: "author", Message: "You can not review your own submission!"}
	}
	return nil
}
