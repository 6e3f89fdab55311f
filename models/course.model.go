package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course states
const (
	CourseStateDraft   = "D"
	CourseStateOpen    = "O"
	CourseStateClosed  = "C"
	CourseStatePrivate = "P"
)

// Lecture types
const (
	LectureTypeVideo        = "V"
	LectureTypeText         = "T"
	LectureTypePeerFeedback = "PF"
	LectureTypeProject      = "P"
	LectureTypeFeedback     = "F"
	LectureTypeLive         = "L"
)

// Submission/review requirement policies
const (
	SubmissionDisabled    = "D"
	SubmissionNotRequired = "N"
	SubmissionForNext     = "C" // required to continue to the next chapter
	SubmissionToEnd       = "E" // required to finish the course
)

// Course is a course offering template. Runs are its scheduled instances.
type Course struct {
	gorm.Model
	Title       string `json:"title"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Perex       string `json:"perex"`
	Description string `json:"description"`
	State       string `json:"state" gorm:"default:'D'"` // D, O, C, P
	// Metadata carries per-course setting overrides under the "options" key.
	Metadata datatypes.JSONMap `json:"metadata"`

	Chapters           []Chapter           `json:"chapters,omitempty"`
	Runs               []Run               `json:"runs,omitempty"`
	SubscriptionLevels []SubscriptionLevel `json:"subscription_levels,omitempty"`
}

// Length is the total number of days over all chapters. A course with
// length 0 is self-paced.
func (c *Course) Length(db *gorm.DB) (int, error) {
	chapters, err := c.loadChapters(db)
	if err != nil {
		return 0, err
	}

	length := 0
	for _, chapter := range chapters {
		length += chapter.Length
	}
	return length, nil
}

func (c *Course) SelfPaced(db *gorm.DB) (bool, error) {
	length, err := c.Length(db)
	return length == 0, err
}

// ActiveRuns returns runs of an open course whose window has not passed yet,
// newest first.
func (c *Course) ActiveRuns(db *gorm.DB) ([]Run, error) {
	if c.State != CourseStateOpen {
		return []Run{}, nil
	}

	var runs []Run
	err := db.
		Where("course_id = ?", c.ID).
		Where(`"end" >= ? OR "end" IS NULL`, Today()).
		Order("start desc").
		Find(&runs).Error
	return runs, err
}

func (c *Course) loadChapters(db *gorm.DB) ([]Chapter, error) {
	if len(c.Chapters) > 0 {
		return c.Chapters, nil
	}
	var chapters []Chapter
	if err := db.Where("course_id = ?", c.ID).Find(&chapters).Error; err != nil {
		return nil, err
	}
	c.Chapters = chapters
	return chapters, nil
}

// Chapter is a content unit of a Course. Chapters form a singly-linked chain
// through Previous; the chain drives the open/close window of each chapter
// within a run.
type Chapter struct {
	gorm.Model
	Title       string `json:"title"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Perex       string `json:"perex"`
	Description string `json:"description"`
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	PreviousID  *uint  `json:"previous_id"`
	// Length is the number of days the chapter stays open. If all chapters of
	// a course have length 0 the course is considered self-paced.
	Length                  int    `json:"length" gorm:"default:7"`
	RequireSubmission       string `json:"require_submission" gorm:"default:'N'"`
	RequireSubmissionReview string `json:"require_submission_review" gorm:"default:'N'"`

	Lectures []Lecture `json:"lectures,omitempty"`
}

// BeforeSave rejects links to chapters of a different course and chains that
// would loop back onto this chapter.
func (ch *Chapter) BeforeSave(tx *gorm.DB) error {
	if ch.PreviousID == nil {
		return nil
	}

	seen := map[uint]bool{ch.ID: true}
	nextID := ch.PreviousID

	for nextID != nil {
		var previous Chapter
		if err := tx.Select("id", "course_id", "previous_id").First(&previous, *nextID).Error; err != nil {
			return err
		}
		if previous.CourseID != ch.CourseID {
			return &ValidationError{Field: "previous", Message: "You can not link to chapter in different course!"}
		}
		if seen[previous.ID] {
			return &ValidationError{Field: "previous", Message: "Chapter chain must not contain cycles!"}
		}
		seen[previous.ID] = true
		nextID = previous.PreviousID
	}
	return nil
}

// RunDates computes the chapter's open and close date within a run. The walk
// accumulates the lengths of all preceding chapters, so chapters open
// sequentially right after each other. A zero-length chapter yields
// end == start - 1, which callers treat as an already-closed window.
func (ch *Chapter) RunDates(db *gorm.DB, run *Run) (start, end time.Time, err error) {
	totalDays := 0
	previousID := ch.PreviousID

	for previousID != nil {
		var previous Chapter
		if err = db.Select("id", "length", "previous_id").First(&previous, *previousID).Error; err != nil {
			return
		}
		totalDays += previous.Length
		previousID = previous.PreviousID
	}

	start = DateOf(run.Start).AddDate(0, 0, totalDays)
	end = DateOf(run.Start).AddDate(0, 0, totalDays+ch.Length-1)
	return
}

// Lecture is a single study unit within a Chapter.
type Lecture struct {
	gorm.Model
	Title       string `json:"title"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Data        string `json:"data"` // uploaded study material reference
	ChapterID   uint   `json:"chapter_id" gorm:"index;not null"`
	LectureType string `json:"lecture_type" gorm:"default:'V'"`
	Order       int    `json:"order" gorm:"default:0"`

	RequireSubmission       string `json:"require_submission" gorm:"default:'N'"`
	RequireSubmissionReview string `json:"require_submission_review" gorm:"default:'N'"`

	// Metadata carries video analytics, e.g. "video_duration" in seconds.
	Metadata datatypes.JSONMap `json:"metadata"`
}
