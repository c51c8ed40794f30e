package entity

import (
	"time"
)

const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// UserStats are maintained by order completion and review moderation.
// Earnings and TotalOrders count sales; OrdersPlaced and TotalSpent count purchases.
type UserStats struct {
	TotalEarnings float64 `json:"totalEarnings" firestore:"totalEarnings"`
	TotalOrders   int     `json:"totalOrders" firestore:"totalOrders"`
	OrdersPlaced  int     `json:"ordersPlaced,omitempty" firestore:"ordersPlaced"`
	TotalSpent    float64 `json:"totalSpent,omitempty" firestore:"totalSpent"`
	Rating        float64 `json:"rating" firestore:"rating"`
	TotalReviews  int     `json:"totalReviews" firestore:"totalReviews"`
}

type User struct {
	ID           string `json:"id" firestore:"id"`
	Name         string `json:"name" firestore:"name"`
	Email        string `json:"email" firestore:"email"`
	PasswordHash string `json:"-" firestore:"passwordHash"`
	Role         string `json:"role" firestore:"role"`

	IsActive         bool   `json:"isActive" firestore:"isActive"`
	IsSuspended      bool   `json:"isSuspended" firestore:"isSuspended"`
	SuspensionReason string `json:"suspensionReason,omitempty" firestore:"suspensionReason,omitempty"`

	Avatar string   `json:"avatar,omitempty" firestore:"avatar,omitempty"`
	Bio    string   `json:"bio,omitempty" firestore:"bio,omitempty"`
	Skills []string `json:"skills,omitempty" firestore:"skills,omitempty"`

	Stats UserStats `json:"stats" firestore:"stats"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" firestore:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" firestore:"updatedAt"`
}

// CanAuthenticate reports whether the account may hold a session.
func (u *User) CanAuthenticate() bool {
	return u.IsActive && !u.IsSuspended
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile strips private fields for display to other users.
func (u *User) PublicProfile() *User {
	stats := u.Stats
	stats.OrdersPlaced = 0
	stats.TotalSpent = 0
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Skills:    u.Skills,
		Stats:     stats,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func IsValidRole(role string) bool {
	switch role {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return true
	}
	return false
}
