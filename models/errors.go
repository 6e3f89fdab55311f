package models

import (
	"errors"
	"fmt"
)

// Access and subscription errors. Controllers translate these into HTTP
// responses, the models never log or notify on their own.
var (
	ErrNotSubscribed     = errors.New("user is not subscribed to this course run")
	ErrPaymentIncomplete = errors.New("subscription payment has not been completed")
	ErrNotYetOpen        = errors.New("chapter is not open yet")
	ErrChapterClosed     = errors.New("chapter has already ended")

	ErrSubmissionDisabled     = errors.New("submissions are disabled for this chapter")
	ErrSubmissionWindowClosed = errors.New("submission window has closed")
	ErrSelfReviewForbidden    = errors.New("you can not review your own submission")

	ErrRunFull                    = errors.New("subscribed user's limit has been reached")
	ErrRunFinished                = errors.New("course run has already finished")
	ErrSubscriptionWindowClosed   = errors.New("course run has already started")
	ErrAlreadySubscribed          = errors.New("user is already subscribed to this course run")
	ErrAlreadySubscribedElsewhere = errors.New("user is already subscribed in a different active run")
	ErrUnsubscribeDisabled        = errors.New("unsubscribing is not allowed for this course run")

	ErrCouponNotFound       = errors.New("coupon not found")
	ErrCouponNotApplicable  = errors.New("coupon can not be applied")
	ErrCouponAlreadyApplied = errors.New("coupon has already been applied")

	// ErrConcurrencyConflict means a concurrent request won the race for the
	// same records. The operation is safe to retry.
	ErrConcurrencyConflict = errors.New("conflicting concurrent update")

	// ErrUnknownSetting means a setting key has no compiled default. This is
	// a configuration bug, not a user error.
	ErrUnknownSetting = errors.New("unknown course setting")
)

// ValidationError reports an entity invariant violation on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
