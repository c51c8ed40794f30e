package entity

import (
	"time"
)

const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Review is left by the buyer of a completed order.
type Review struct {
	ID         string `json:"id" firestore:"id"`
	OrderID    string `json:"orderId" firestore:"orderId"`
	GigID      string `json:"gigId" firestore:"gigId"`
	ReviewerID string `json:"reviewerId" firestore:"reviewerId"`
	RevieweeID string `json:"revieweeId" firestore:"revieweeId"`
	Rating     int    `json:"rating" firestore:"rating"` // 1-5
	Comment    string `json:"comment" firestore:"comment"`

	Status          string     `json:"status" firestore:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty" firestore:"rejectionReason,omitempty"`
	ModeratedBy     string     `json:"moderatedBy,omitempty" firestore:"moderatedBy,omitempty"`
	ModeratedAt     *time.Time `json:"moderatedAt,omitempty" firestore:"moderatedAt,omitempty"`

	Reported     bool       `json:"reported" firestore:"reported"`
	ReportReason string     `json:"reportReason,omitempty" firestore:"reportReason,omitempty"`
	ReportedBy   string     `json:"reportedBy,omitempty" firestore:"reportedBy,omitempty"`
	ReportedAt   *time.Time `json:"reportedAt,omitempty" firestore:"reportedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// RatingSummary is the mean and count of a set of approved ratings.
type RatingSummary struct {
	Average float64
	Count   int
}

// SummarizeApproved averages the approved reviews only, rounded to two decimals.
func SummarizeApproved(reviews []*Review) RatingSummary {
	sum, count := 0, 0
	for _, r := range reviews {
		if r.Status != ReviewStatusApproved {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return RatingSummary{}
	}
	avg := float64(sum) / float64(count)
	return RatingSummary{Average: float64(int(avg*100+0.5)) / 100, Count: count}
}
