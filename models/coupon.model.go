package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Coupon discount types
const (
	DiscountFlat       = "F"
	DiscountPercentage = "P"
)

// Coupon is a discount code applicable to runs of selected courses.
type Coupon struct {
	gorm.Model
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null"`
	ValidFrom time.Time `json:"valid_from" gorm:"type:date;not null"`
	ValidTo   time.Time `json:"valid_to" gorm:"type:date;not null"`
	// Limit is how many times the coupon can be used. 0 disables the coupon.
	Limit        int     `json:"limit" gorm:"default:0"`
	DiscountType string  `json:"discount_type" gorm:"not null"` // F, P
	Discount     float64 `json:"discount" gorm:"default:0"`

	Courses []Course `json:"courses,omitempty" gorm:"many2many:coupon_courses;"`
}

// UsageCount is the number of subscriptions the coupon has been applied to.
func (cp *Coupon) UsageCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&RunUser{}).Where("discount_coupon_id = ?", cp.ID).Count(&count).Error
	return count, err
}

// IsApplicable checks the coupon against a run: validity window, usage limit
// and whether the run's course is among the coupon's courses.
func (cp *Coupon) IsApplicable(db *gorm.DB, run *Run) error {
	today := Today()
	if today.Before(DateOf(cp.ValidFrom)) || today.After(DateOf(cp.ValidTo)) {
		return ErrCouponNotApplicable
	}

	used, err := cp.UsageCount(db)
	if err != nil {
		return err
	}
	if used >= int64(cp.Limit) {
		return ErrCouponNotApplicable
	}

	var courses int64
	err = db.Table("coupon_courses").
		Where("coupon_id = ? AND course_id = ?", cp.ID, run.CourseID).
		Count(&courses).Error
	if err != nil {
		return err
	}
	if courses == 0 {
		return ErrCouponNotApplicable
	}
	return nil
}

// DiscountedPrice computes the price after applying the coupon, rounded to
// two decimal places. Flat discounts never push the price below zero.
func (cp *Coupon) DiscountedPrice(price float64) float64 {
	var discounted float64
	switch cp.DiscountType {
	case DiscountFlat:
		discounted = math.Max(0, price-cp.Discount)
	case DiscountPercentage:
		discounted = price * (100 - cp.Discount) / 100
	default:
		discounted = price
	}
	return math.Round(discounted*100) / 100
}
