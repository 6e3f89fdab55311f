package models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate is proof of course completion, unique per (run, user).
type Certificate struct {
	gorm.Model
	UUID     string `json:"uuid" gorm:"uniqueIndex;not null"`
	RunID    uint   `json:"run_id" gorm:"not null;uniqueIndex:idx_certificates_run_user"`
	UserID   uint   `json:"user_id" gorm:"not null;uniqueIndex:idx_certificates_run_user"`
	Data     string `json:"data"` // rendered certificate file reference
	Template string `json:"template"`
}

func (cert *Certificate) BeforeCreate(tx *gorm.DB) error {
	if cert.UUID == "" {
		cert.UUID = uuid.NewString()
	}
	return nil
}

// GenerateCertificate creates the certificate for a passed run, once. The
// unique (run, user) index is the safety net under concurrent generation: a
// duplicate insert is reported as created == false, not as an error.
func GenerateCertificate(db *gorm.DB, run *Run, userID uint) (*Certificate, bool, error) {
	var existing Certificate
	err := db.Where("run_id = ? AND user_id = ?", run.ID, userID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	cert := Certificate{RunID: run.ID, UserID: userID}
	if err := db.Create(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race, fetch the winner's row.
			if err := db.Where("run_id = ? AND user_id = ?", run.ID, userID).First(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &cert, true, nil
}
