package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeApprovedIgnoresOtherStatuses(t *testing.T) {
	reviews := []*Review{
		{Rating: 5, Status: ReviewStatusApproved},
		{Rating: 4, Status: ReviewStatusApproved},
		{Rating: 4, Status: ReviewStatusApproved},
		{Rating: 1, Status: ReviewStatusPending},
		{Rating: 1, Status: ReviewStatusRejected},
	}

	got := SummarizeApproved(reviews)

	assert.Equal(t, 3, got.Count)
	assert.InDelta(t, 4.33, got.Average, 0.001)
}

func TestSummarizeApprovedEmpty(t *testing.T) {
	assert.Equal(t, RatingSummary{}, SummarizeApproved(nil))
	assert.Equal(t, RatingSummary{}, SummarizeApproved([]*Review{{Rating: 5, Status: ReviewStatusPending}}))
}

func TestOrderActorFor(t *testing.T) {
	o := &Order{BuyerID: "b", SellerID: "s"}

	assert.Equal(t, ActorBuyer, o.ActorFor(&User{ID: "b", Role: RoleClient}))
	assert.Equal(t, ActorSeller, o.ActorFor(&User{ID: "s", Role: RoleFreelancer}))
	assert.Equal(t, ActorAdmin, o.ActorFor(&User{ID: "x", Role: RoleAdmin}))
	assert.Equal(t, "", o.ActorFor(&User{ID: "x", Role: RoleClient}))
}
