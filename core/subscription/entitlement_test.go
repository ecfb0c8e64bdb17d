package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanUse(t *testing.T) {
	now := time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active pro", Subscription{Tier: TierPro, Status: StatusActive}, true},
		{"cancelled", Subscription{Tier: TierPro, Status: StatusCancelled}, false},
		{"expired", Subscription{Tier: TierTrial, Status: StatusExpired}, false},
		{"trial in window", Subscription{Tier: TierTrial, Status: StatusActive, TrialEndDate: &future}, true},
		{"trial lapsed", Subscription{Tier: TierTrial, Status: StatusActive, TrialEndDate: &past}, false},
		{"pro with stale trial date", Subscription{Tier: TierPro, Status: StatusActive, TrialEndDate: &past}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUse(tt.sub, now))
		})
	}
}

func TestCanAdd(t *testing.T) {
	now := time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	active := Subscription{Tier: TierPro, Status: StatusActive}

	tests := []struct {
		name  string
		sub   Subscription
		limit int
		count int
		want  bool
	}{
		{"under limit", active, 10, 9, true},
		{"at limit", active, 10, 10, false},
		{"over limit", active, 10, 11, false},
		{"unlimited", active, Unlimited, 100000, true},
		{"zero limit", active, 0, 0, false},
		{"cancelled denies", Subscription{Tier: TierPro, Status: StatusCancelled}, 10, 0, false},
		{"lapsed trial denies", Subscription{Tier: TierTrial, Status: StatusActive, TrialEndDate: &past}, 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAdd(tt.sub, tt.limit, tt.count, now))
		})
	}
}

func TestCheckAddCause(t *testing.T) {
	now := time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		sub     Subscription
		limit   int
		count   int
		wantErr error
	}{
		{"ok", Subscription{Tier: TierPro, Status: StatusActive}, 10, 5, nil},
		{"trial expired", Subscription{Tier: TierTrial, Status: StatusActive, TrialEndDate: &past}, 10, 0, ErrTrialExpired},
		{"cancelled", Subscription{Tier: TierPro, Status: StatusCancelled}, 10, 0, ErrNotUsable},
		{"limit reached", Subscription{Tier: TierPro, Status: StatusActive}, 10, 10, ErrLimitReached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, checkAdd(tt.sub, tt.limit, tt.count, now))
		})
	}
}

func TestTrialDaysRemaining(t *testing.T) {
	now := time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC)

	end3d := now.Add(72 * time.Hour)
	end3dAndChange := now.Add(72*time.Hour + time.Minute)
	endPast := now.Add(-time.Minute)

	tests := []struct {
		name string
		sub  Subscription
		want int
	}{
		{"three days exactly", Subscription{Tier: TierTrial, TrialEndDate: &end3d}, 3},
		{"rounds up", Subscription{Tier: TierTrial, TrialEndDate: &end3dAndChange}, 4},
		{"lapsed", Subscription{Tier: TierTrial, TrialEndDate: &endPast}, 0},
		{"not a trial", Subscription{Tier: TierPro, TrialEndDate: &end3d}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.TrialDaysRemaining(now))
		})
	}
}
