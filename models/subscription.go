package models

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Subscribe creates a subscription record for the user on a run. The
// preconditions are re-checked inside the write transaction, under a lock on
// the run row, so two racing requests can not both take the last free slot.
func Subscribe(db *gorm.DB, run *Run, userID uint, levelID *uint) (*RunUser, error) {
	var runUser *RunUser

	err := db.Transaction(func(tx *gorm.DB) error {
		// Concurrent subscriptions to the same run queue up on this lock;
		// the capacity and double-subscription counts below are only valid
		// while it is held.
		var locked Run
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, run.ID).Error; err != nil {
			return err
		}

		full, err := run.IsFull(tx)
		if err != nil {
			return err
		}
		if full {
			return ErrRunFull
		}

		allowRunning, err := run.SettingBool(tx, "COURSES_ALLOW_SUBSCRIPTION_TO_RUNNING_COURSE")
		if err != nil {
			return err
		}
		if !allowRunning && !DateOf(run.Start).After(Today()) {
			return ErrSubscriptionWindowClosed
		}
		if run.IsPastDue() {
			return ErrRunFinished
		}

		subscribed, err := run.IsSubscribed(tx, userID)
		if err != nil {
			return err
		}
		if subscribed {
			return ErrAlreadySubscribed
		}

		elsewhere, err := run.IsSubscribedInDifferentActiveRun(tx, userID)
		if err != nil {
			return err
		}
		if elsewhere {
			return ErrAlreadySubscribedElsewhere
		}

		price := 0.0
		if levelID != nil {
			var level SubscriptionLevel
			if err := tx.First(&level, *levelID).Error; err != nil {
				return err
			}
			price = level.Price
		}

		runUser = &RunUser{
			RunID:               run.ID,
			UserID:              userID,
			SubscriptionLevelID: levelID,
			Price:               price,
			Payment:             0,
		}
		if err := tx.Create(runUser).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConcurrencyConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runUser, nil
}

// Unsubscribe removes the user's subscription records for a run, unless the
// run disables unsubscribing.
func Unsubscribe(db *gorm.DB, run *Run, userID uint) error {
	allowed, err := run.SettingBool(db, "COURSES_ALLOW_USER_UNSUBSCRIBE")
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnsubscribeDisabled
	}

	subscribed, err := run.IsSubscribed(db, userID)
	if err != nil {
		return err
	}
	if !subscribed {
		return ErrNotSubscribed
	}

	return db.Where("run_id = ? AND user_id = ?", run.ID, userID).
		Delete(&RunUser{}).Error
}

// ApplyCoupon applies a discount coupon to a subscription record. A coupon
// can be applied at most once per record; the pre-discount price snapshot is
// the guard. The checks and the write share one transaction, with the coupon
// and subscription rows locked so the usage count and the already-applied
// check stay valid until commit.
func ApplyCoupon(db *gorm.DB, slug string, runUser *RunUser) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var coupon Coupon
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("slug = ?", slug).First(&coupon).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCouponNotFound
			}
			return err
		}

		// Re-read the subscription inside the transaction, another request
		// may have applied a coupon meanwhile.
		var current RunUser
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, runUser.ID).Error; err != nil {
			return err
		}
		if current.DiscountCouponID != nil || current.PriceBeforeDiscount != nil {
			return ErrCouponAlreadyApplied
		}

		var run Run
		if err := tx.First(&run, current.RunID).Error; err != nil {
			return err
		}
		if err := coupon.IsApplicable(tx, &run); err != nil {
			return err
		}

		before := current.Price
		current.PriceBeforeDiscount = &before
		current.Price = coupon.DiscountedPrice(before)
		current.DiscountCouponID = &coupon.ID

		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		*runUser = current
		return nil
	})
}

// UserPayment sums the received payments over all subscription records the
// user holds for a run.
func UserPayment(db *gorm.DB, run *Run, userID uint) (float64, error) {
	var total float64
	err := db.Model(&RunUser{}).
		Where("run_id = ? AND user_id = ?", run.ID, userID).
		Select("COALESCE(SUM(payment), 0)").
		Scan(&total).Error
	return total, err
}
