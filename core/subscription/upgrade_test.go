package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatusCanTransitionTo(t *testing.T) {
	allowed := map[RequestStatus][]RequestStatus{
		RequestPending:        {RequestApproved, RequestRejected},
		RequestApproved:       {RequestPaymentPending},
		RequestPaymentPending: {RequestCompleted, RequestApproved},
		RequestRejected:       nil,
		RequestCompleted:      nil,
	}

	all := []RequestStatus{RequestPending, RequestApproved, RequestRejected, RequestPaymentPending, RequestCompleted}
	for from, nexts := range allowed {
		ok := make(map[RequestStatus]bool, len(nexts))
		for _, n := range nexts {
			ok[n] = true
		}
		for _, to := range all {
			assert.Equalf(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestRequestStatusIsTerminal(t *testing.T) {
	assert.True(t, RequestRejected.IsTerminal())
	assert.True(t, RequestCompleted.IsTerminal())
	assert.False(t, RequestPending.IsTerminal())
	assert.False(t, RequestApproved.IsTerminal())
	assert.False(t, RequestPaymentPending.IsTerminal())
}

func TestTierRank(t *testing.T) {
	assert.True(t, TierPro.Rank() > TierTrial.Rank())
	assert.True(t, TierPremium.Rank() > TierPro.Rank())
	assert.True(t, TierInstitution.Rank() > TierPremium.Rank())
	assert.Equal(t, 0, Tier("gold").Rank())
	assert.False(t, Tier("gold").Valid())
}
