package subscription

import (
	"time"
)

// Unlimited is the sentinel plan limit for tiers without resource caps.
const Unlimited = -1

type Tier string

const (
	TierTrial       Tier = "trial"
	TierPro         Tier = "pro"
	TierPremium     Tier = "premium"
	TierInstitution Tier = "institution"
)

var (
	AllTiers = []Tier{TierTrial, TierPro, TierPremium, TierInstitution}

	// tierRanks orders tiers for upgrade comparisons.
	tierRanks = map[Tier]int{
		TierTrial:       1,
		TierPro:         2,
		TierPremium:     3,
		TierInstitution: 4,
	}
)

func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank returns the tier's position in the upgrade ladder; 0 for unknown tiers.
func (t Tier) Rank() int {
	return tierRanks[t]
}

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Plan is a catalog entry bundling price, resource limits and features for a tier.
// The catalog is admin-editable wholesale; limits are enforced against the live
// catalog at check time.
type Plan struct {
	Tier            Tier      `json:"tier" db:"tier" validate:"required,alltiers"`
	Name            string    `json:"name" db:"name" validate:"required"`
	PriceIDR        int64     `json:"price_idr" db:"price_idr" validate:"min=0"`
	TrialDays       int       `json:"trial_days" db:"trial_days" validate:"min=0"`
	MaxStudents     int       `json:"max_students" db:"max_students" validate:"min=-1"`
	MaxExaminers    int       `json:"max_examiners" db:"max_examiners" validate:"min=-1"`
	CanExport       bool      `json:"can_export" db:"can_export"`
	PrioritySupport bool      `json:"priority_support" db:"priority_support"`
	Analytics       bool      `json:"analytics" db:"analytics"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPlans is the catalog seeded at install time.
func DefaultPlans() []Plan {
	return []Plan{
		{Tier: TierTrial, Name: "Trial", PriceIDR: 0, TrialDays: 7, MaxStudents: 10, MaxExaminers: 2},
		{Tier: TierPro, Name: "Pro", PriceIDR: 99000, MaxStudents: 100, MaxExaminers: 10, CanExport: true},
		{Tier: TierPremium, Name: "Premium", PriceIDR: 199000, MaxStudents: Unlimited, MaxExaminers: Unlimited, CanExport: true, Analytics: true},
		{Tier: TierInstitution, Name: "Institution", PriceIDR: 499000, MaxStudents: Unlimited, MaxExaminers: Unlimited, CanExport: true, PrioritySupport: true, Analytics: true},
	}
}

// Subscription is a tenant's one-and-only subscription record.
// TrialEndDate is only meaningful while Tier is trial.
type Subscription struct {
	ID           string     `json:"id" db:"id"`
	TenantID     string     `json:"tenant_id" db:"tenant_id"`
	Tier         Tier       `json:"tier" db:"tier"`
	Status       Status     `json:"status" db:"status"`
	StartDate    time.Time  `json:"start_date" db:"start_date"`
	EndDate      *time.Time `json:"end_date" db:"end_date"`
	TrialEndDate *time.Time `json:"trial_end_date" db:"trial_end_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTrialExpired reports whether the trial period has lapsed.
// Non-trial tiers never expire by date, only by explicit cancellation.
func (s Subscription) IsTrialExpired(now time.Time) bool {
	if s.Tier != TierTrial || s.TrialEndDate == nil {
		return false
	}
	return now.After(*s.TrialEndDate)
}

// TrialDaysRemaining returns whole days left in the trial, rounded up; 0 once lapsed.
func (s Subscription) TrialDaysRemaining(now time.Time) int {
	if s.Tier != TierTrial || s.TrialEndDate == nil {
		return 0
	}
	remaining := s.TrialEndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// NewUpgradeRequest is the tenant-facing payload opening an upgrade request.
type NewUpgradeRequest struct {
	RequestedTier Tier `json:"requested_tier" validate:"required,alltiers"`
}

// TenantStatus is the entitlement summary served to the tenant dashboard.
type TenantStatus struct {
	Tier               Tier   `json:"tier"`
	Status             Status `json:"status"`
	CanUseApp          bool   `json:"can_use_app"`
	IsTrialExpired     bool   `json:"is_trial_expired"`
	TrialDaysRemaining int    `json:"trial_days_remaining"`
	MaxStudents        int    `json:"max_students"`
	StudentCount       int    `json:"student_count"`
	MaxExaminers       int    `json:"max_examiners"`
	ExaminerCount      int    `json:"examiner_count"`
	CanExport          bool   `json:"can_export"`
	PrioritySupport    bool   `json:"priority_support"`
	Analytics          bool   `json:"analytics"`
}
