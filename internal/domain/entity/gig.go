package entity

import (
	"errors"
	"sort"
	"time"
)

const (
	GigStatusDraft    = "draft"
	GigStatusPending  = "pending"
	GigStatusActive   = "active"
	GigStatusPaused   = "paused"
	GigStatusRejected = "rejected"

	MinGigPrice  = 5.0
	MaxGigImages = 10
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrTooManyImages = errors.New("gig already has the maximum number of images")
)

type GigImage struct {
	ID           string `json:"id" firestore:"id"`
	URL          string `json:"url" firestore:"url"`
	IsPrimary    bool   `json:"isPrimary" firestore:"isPrimary"`
	DisplayOrder int    `json:"displayOrder" firestore:"displayOrder"`
}

type Gig struct {
	ID              string     `json:"id" firestore:"id"`
	SellerID        string     `json:"sellerId" firestore:"sellerId"`
	Title           string     `json:"title" firestore:"title"`
	Description     string     `json:"description" firestore:"description"`
	Category        string     `json:"category" firestore:"category"`
	Subcategory     string     `json:"subcategory,omitempty" firestore:"subcategory,omitempty"`
	Tags            []string   `json:"tags,omitempty" firestore:"tags,omitempty"`
	Price           float64    `json:"price" firestore:"price"`
	DeliveryTime    int        `json:"deliveryTime" firestore:"deliveryTime"`
	Revisions       int        `json:"revisions" firestore:"revisions"`
	Images          []GigImage `json:"images" firestore:"images"`
	Status          string     `json:"status" firestore:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty" firestore:"rejectionReason,omitempty"`

	Rating        float64 `json:"rating" firestore:"rating"`
	TotalReviews  int     `json:"totalReviews" firestore:"totalReviews"`
	TotalOrders   int     `json:"totalOrders" firestore:"totalOrders"`
	TotalEarnings float64 `json:"totalEarnings" firestore:"totalEarnings"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// AddImage appends an image. The first image becomes primary.
func (g *Gig) AddImage(img GigImage) error {
	if len(g.Images) >= MaxGigImages {
		return ErrTooManyImages
	}
	img.IsPrimary = g.PrimaryImage() == nil
	img.DisplayOrder = g.nextDisplayOrder()
	g.Images = append(g.Images, img)
	return nil
}

// RemoveImage drops an image and promotes the lowest display order
// if the primary was removed.
func (g *Gig) RemoveImage(id string) (GigImage, error) {
	idx := -1
	for i, img := range g.Images {
		if img.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return GigImage{}, ErrImageNotFound
	}

	removed := g.Images[idx]
	g.Images = append(g.Images[:idx], g.Images[idx+1:]...)

	if removed.IsPrimary && len(g.Images) > 0 {
		sort.SliceStable(g.Images, func(i, j int) bool {
			return g.Images[i].DisplayOrder < g.Images[j].DisplayOrder
		})
		g.Images[0].IsPrimary = true
	}
	return removed, nil
}

// SetPrimaryImage makes id the only primary image.
func (g *Gig) SetPrimaryImage(id string) error {
	found := false
	for _, img := range g.Images {
		if img.ID == id {
			found = true
			break
		}
	}
	if !found {
		return ErrImageNotFound
	}
	for i := range g.Images {
		g.Images[i].IsPrimary = g.Images[i].ID == id
	}
	return nil
}

func (g *Gig) PrimaryImage() *GigImage {
	for i := range g.Images {
		if g.Images[i].IsPrimary {
			return &g.Images[i]
		}
	}
	return nil
}

func (g *Gig) IsPurchasable() bool {
	return g.Status == GigStatusActive && g.Price >= MinGigPrice
}

func (g *Gig) nextDisplayOrder() int {
	next := 0
	for _, img := range g.Images {
		if img.DisplayOrder >= next {
			next = img.DisplayOrder + 1
		}
	}
	return next
}

func IsValidGigStatus(status string) bool {
	switch status {
	case GigStatusDraft, GigStatusPending, GigStatusActive, GigStatusPaused, GigStatusRejected:
		return true
	}
	return false
}
