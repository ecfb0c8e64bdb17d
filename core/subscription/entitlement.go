package subscription

import (
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoSubscription denies everything when a tenant has no subscription
	// record: a missing record means no entitlement (fail closed).
	ErrNoSubscription = errors.New("no subscription found")

	ErrTrialExpired    = errors.New("trial period has expired")
	ErrNotUsable       = errors.New("subscription is not active")
	ErrLimitReached    = errors.New("plan limit reached")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrRequestNotFound = errors.New("upgrade request not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// CanUse reports whether the tenant may use the app at all: the subscription
// must not be cancelled or expired, and a trial must not have lapsed.
func CanUse(sub Subscription, now time.Time) bool {
	if sub.Status == StatusCancelled || sub.Status == StatusExpired {
		return false
	}
	return !sub.IsTrialExpired(now)
}

// CanAdd reports whether one more resource may be created under the given
// plan limit. Unlimited always admits while the subscription is usable.
func CanAdd(sub Subscription, limit, currentCount int, now time.Time) bool {
	if !CanUse(sub, now) {
		return false
	}
	if limit == Unlimited {
		return true
	}
	return currentCount < limit
}

// checkAdd maps a denied CanAdd to its cause.
func checkAdd(sub Subscription, limit, currentCount int, now time.Time) error {
	if sub.IsTrialExpired(now) {
		return ErrTrialExpired
	}
	if !CanUse(sub, now) {
		return ErrNotUsable
	}
	if limit != Unlimited && currentCount >= limit {
		return ErrLimitReached
	}
	return nil
}
