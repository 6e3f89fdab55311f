package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// countLockedQueries registers a callback counting SELECT ... FOR UPDATE
// queries. The sqlite test driver drops the locking clause from the SQL it
// emits, so the statement clauses are inspected instead.
func countLockedQueries(t *testing.T, db *gorm.DB) *int {
	t.Helper()

	locked := 0
	err := db.Callback().Query().Before("gorm:query").Register("count_locked_queries", func(tx *gorm.DB) {
		if c, ok := tx.Statement.Clauses["FOR"]; ok {
			if l, ok := c.Expression.(clause.Locking); ok && l.Strength == "UPDATE" {
				locked++
			}
		}
	})
	require.NoError(t, err)
	return &locked
}

func TestSubscribe(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7, 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	runUser, err := Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, run.ID, runUser.RunID)
	assert.Equal(t, user.ID, runUser.UserID)
	assert.Equal(t, 0.0, runUser.Price)

	_, err = Subscribe(db, run, user.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscribeWithLevel(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	level := SubscriptionLevel{RunID: &run.ID, Title: "Premium", Price: 120}
	require.NoError(t, db.Create(&level).Error)

	runUser, err := Subscribe(db, run, user.ID, &level.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, runUser.Price)
	assert.Equal(t, 0.0, runUser.Payment)
}

func TestSubscribeFullRun(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	run.Limit = 1
	require.NoError(t, db.Save(run).Error)

	first := createUser(t, db, "first@example.com", "USER")
	second := createUser(t, db, "second@example.com", "USER")

	_, err := Subscribe(db, run, first.ID, nil)
	require.NoError(t, err)

	_, err = Subscribe(db, run, second.ID, nil)
	assert.ErrorIs(t, err, ErrRunFull)
}

func TestSubscribeFinishedRun(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-06-01")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	_, err := Subscribe(db, run, user.ID, nil)
	assert.ErrorIs(t, err, ErrRunFinished)
}

func TestSubscribeRunningCourseDisabled(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	course.Metadata = map[string]interface{}{
		"options": map[string]interface{}{
			"COURSES_ALLOW_SUBSCRIPTION_TO_RUNNING_COURSE": false,
		},
	}
	require.NoError(t, db.Save(course).Error)

	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	_, err := Subscribe(db, run, user.ID, nil)
	assert.ErrorIs(t, err, ErrSubscriptionWindowClosed)

	// A run that has not started yet can still be subscribed to.
	future := createRun(t, db, course, "golang-run-later", "2024-02-01")
	_, err = Subscribe(db, future, user.ID, nil)
	assert.NoError(t, err)
}

func TestSubscribeDifferentActiveRun(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 30)
	first := createRun(t, db, course, "golang-january", "2024-01-01")
	second := createRun(t, db, course, "golang-february", "2024-01-15")
	user := createUser(t, db, "student@example.com", "USER")

	_, err := Subscribe(db, first, user.ID, nil)
	require.NoError(t, err)

	_, err = Subscribe(db, second, user.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadySubscribedElsewhere)

	// Other users are unaffected.
	other := createUser(t, db, "other@example.com", "USER")
	_, err = Subscribe(db, second, other.ID, nil)
	assert.NoError(t, err)
}

func TestUnsubscribe(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	err := Unsubscribe(db, run, user.ID)
	assert.ErrorIs(t, err, ErrNotSubscribed)

	_, err = Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)

	require.NoError(t, Unsubscribe(db, run, user.ID))

	subscribed, err := run.IsSubscribed(db, user.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)
}

func TestUnsubscribeDisabledBySetting(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	run.Metadata = map[string]interface{}{
		"options": map[string]interface{}{
			"COURSES_ALLOW_USER_UNSUBSCRIBE": false,
		},
	}
	require.NoError(t, db.Save(run).Error)

	user := createUser(t, db, "student@example.com", "USER")
	_, err := Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)

	err = Unsubscribe(db, run, user.ID)
	assert.ErrorIs(t, err, ErrUnsubscribeDisabled)
}

func TestSubscribeLocksRunRow(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	locked := countLockedQueries(t, db)

	_, err := Subscribe(db, run, user.ID, nil)
	require.NoError(t, err)

	// The capacity and double-subscription checks must run under a lock on
	// the run row, or two racing requests could both take the last slot.
	assert.GreaterOrEqual(t, *locked, 1)
}

func TestApplyCouponLocksRows(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	createCoupon(t, db, "QUARTER", Coupon{
		ValidFrom:    date(t, "2024-01-01"),
		ValidTo:      date(t, "2024-12-31"),
		Limit:        10,
		DiscountType: DiscountPercentage,
		Discount:     25,
	}, course)

	runUser := RunUser{RunID: run.ID, UserID: user.ID, Price: 100}
	require.NoError(t, db.Create(&runUser).Error)

	locked := countLockedQueries(t, db)

	require.NoError(t, ApplyCoupon(db, "QUARTER", &runUser))

	// Both the coupon (usage limit) and the subscription record
	// (already-applied check) have to be read under a lock.
	assert.GreaterOrEqual(t, *locked, 2)
}

func TestUserPayment(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	total, err := UserPayment(db, run, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	require.NoError(t, db.Create(&RunUser{RunID: run.ID, UserID: user.ID, Price: 100, Payment: 40}).Error)
	require.NoError(t, db.Create(&RunUser{RunID: run.ID, UserID: user.ID, Price: 50, Payment: 25}).Error)

	total, err = UserPayment(db, run, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 65.0, total)
}

func createCoupon(t *testing.T, db *gorm.DB, slug string, coupon Coupon, courses ...*Course) *Coupon {
	t.Helper()

	coupon.Slug = slug
	for _, course := range courses {
		coupon.Courses = append(coupon.Courses, *course)
	}
	require.NoError(t, db.Create(&coupon).Error)
	return &coupon
}

func TestApplyCouponFlat(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	createCoupon(t, db, "TENOFF", Coupon{
		ValidFrom:    date(t, "2024-01-01"),
		ValidTo:      date(t, "2024-12-31"),
		Limit:        10,
		DiscountType: DiscountFlat,
		Discount:     10,
	}, course)

	runUser := RunUser{RunID: run.ID, UserID: user.ID, Price: 8}
	require.NoError(t, db.Create(&runUser).Error)

	require.NoError(t, ApplyCoupon(db, "TENOFF", &runUser))

	// Flat discounts clamp at zero.
	assert.Equal(t, 0.0, runUser.Price)
	require.NotNil(t, runUser.PriceBeforeDiscount)
	assert.Equal(t, 8.0, *runUser.PriceBeforeDiscount)
	require.NotNil(t, runUser.DiscountCouponID)
}

func TestApplyCouponPercentage(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	createCoupon(t, db, "QUARTER", Coupon{
		ValidFrom:    date(t, "2024-01-01"),
		ValidTo:      date(t, "2024-12-31"),
		Limit:        10,
		DiscountType: DiscountPercentage,
		Discount:     25,
	}, course)

	runUser := RunUser{RunID: run.ID, UserID: user.ID, Price: 100}
	require.NoError(t, db.Create(&runUser).Error)

	require.NoError(t, ApplyCoupon(db, "QUARTER", &runUser))
	assert.Equal(t, 75.0, runUser.Price)
}

func TestApplyCouponIdempotence(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	createCoupon(t, db, "QUARTER", Coupon{
		ValidFrom:    date(t, "2024-01-01"),
		ValidTo:      date(t, "2024-12-31"),
		Limit:        10,
		DiscountType: DiscountPercentage,
		Discount:     25,
	}, course)

	runUser := RunUser{RunID: run.ID, UserID: user.ID, Price: 100}
	require.NoError(t, db.Create(&runUser).Error)

	require.NoError(t, ApplyCoupon(db, "QUARTER", &runUser))
	err := ApplyCoupon(db, "QUARTER", &runUser)
	assert.ErrorIs(t, err, ErrCouponAlreadyApplied)

	// The price stays at the once-discounted value.
	var stored RunUser
	require.NoError(t, db.First(&stored, runUser.ID).Error)
	assert.Equal(t, 75.0, stored.Price)
	assert.Equal(t, 100.0, *stored.PriceBeforeDiscount)
}

func TestApplyCouponNotFound(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	runUser := RunUser{RunID: run.ID, UserID: user.ID, Price: 100}
	require.NoError(t, db.Create(&runUser).Error)

	err := ApplyCoupon(db, "NOSUCH", &runUser)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestApplyCouponNotApplicable(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	other, _ := createCourse(t, db, "rustlang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")
	user := createUser(t, db, "student@example.com", "USER")

	// Expired before today.
	createCoupon(t, db, "EXPIRED", Coupon{
		ValidFrom:    date(t, "2023-01-01"),
		ValidTo:      date(t, "2023-12-31"),
		Limit:        10,
		DiscountType: DiscountFlat,
		Discount:     10,
	}, course)

	// Valid, but tied to a different course.
	createCoupon(t, db, "ELSEWHERE", Coupon{
		ValidFrom:    date(t, "2024-01-01"),
		ValidTo:      date(t, "2024-12-31"),
		Limit:        10,
		DiscountType: DiscountFlat,
		Discount:     10,
	}, other)

	// Usage limit of zero disables the coupon entirely.
	createCoupon(t, db, "DISABLED", Coupon{
		ValidFrom:    date(t, "2024-01-01"),
		ValidTo:      date(t, "2024-12-31"),
		Limit:        0,
		DiscountType: DiscountFlat,
		Discount:     10,
	}, course)

	runUser := RunUser{RunID: run.ID, UserID: user.ID, Price: 100}
	require.NoError(t, db.Create(&runUser).Error)

	for _, slug := range []string{"EXPIRED", "ELSEWHERE", "DISABLED"} {
		err := ApplyCoupon(db, slug, &runUser)
		assert.ErrorIs(t, err, ErrCouponNotApplicable, slug)
	}
	assert.Equal(t, 100.0, runUser.Price)
}

func TestCouponUsageLimit(t *testing.T) {
	db := newTestDB(t)
	pinToday(t, "2024-01-05")

	course, _ := createCourse(t, db, "golang", 7)
	run := createRun(t, db, course, "golang-run", "2024-01-01")

	createCoupon(t, db, "ONESHOT", Coupon{
		ValidFrom:    date(t, "2024-01-01"),
		ValidTo:      date(t, "2024-12-31"),
		Limit:        1,
		DiscountType: DiscountFlat,
		Discount:     10,
	}, course)

	first := createUser(t, db, "first@example.com", "USER")
	second := createUser(t, db, "second@example.com", "USER")

	firstSub := RunUser{RunID: run.ID, UserID: first.ID, Price: 100}
	require.NoError(t, db.Create(&firstSub).Error)
	secondSub := RunUser{RunID: run.ID, UserID: second.ID, Price: 100}
	require.NoError(t, db.Create(&secondSub).Error)

	require.NoError(t, ApplyCoupon(db, "ONESHOT", &firstSub))

	err := ApplyCoupon(db, "ONESHOT", &secondSub)
	assert.ErrorIs(t, err, ErrCouponNotApplicable)
}
