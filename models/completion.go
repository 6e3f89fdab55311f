package models

import "gorm.io/gorm"

func requiresSubmission(policy string) bool {
	return policy == SubmissionForNext || policy == SubmissionToEnd
}

// Passed reports whether the user has satisfied all required submissions for
// a run: every chapter and lecture whose policy requires a submission needs
// at least one submission by the user.
//
// Required chapters are matched against the submission's lecture reference,
// same as required lectures.
// TODO: clarify with product whether chapter requirements should match the
// submission's chapter reference instead; existing data relies on the
// current comparison.
func Passed(db *gorm.DB, run *Run, userID uint) (bool, error) {
	var chapters []Chapter
	if err := db.Preload("Lectures").Where("course_id = ?", run.CourseID).Find(&chapters).Error; err != nil {
		return false, err
	}

	requiredChapters := map[uint]bool{}
	requiredLectures := map[uint]bool{}
	for _, chapter := range chapters {
		if requiresSubmission(chapter.RequireSubmission) {
			requiredChapters[chapter.ID] = false
		}
		for _, lecture := range chapter.Lectures {
			if requiresSubmission(lecture.RequireSubmission) {
				requiredLectures[lecture.ID] = false
			}
		}
	}
	if len(requiredChapters) == 0 && len(requiredLectures) == 0 {
		return true, nil
	}

	var submissions []Submission
	err := db.Where("run_id = ? AND author_id = ?", run.ID, userID).Find(&submissions).Error
	if err != nil {
		return false, err
	}

	for _, submission := range submissions {
		if submission.LectureID == nil {
			continue
		}
		if _, ok := requiredChapters[*submission.LectureID]; ok {
			requiredChapters[*submission.LectureID] = true
		}
		if _, ok := requiredLectures[*submission.LectureID]; ok {
			requiredLectures[*submission.LectureID] = true
		}
	}

	for _, satisfied := range requiredChapters {
		if !satisfied {
			return false, nil
		}
	}
	for _, satisfied := range requiredLectures {
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}
