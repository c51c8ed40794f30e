package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primaryCount(g *Gig) int {
	n := 0
	for _, img := range g.Images {
		if img.IsPrimary {
			n++
		}
	}
	return n
}

func TestGigAddImageFirstIsPrimary(t *testing.T) {
	g := &Gig{}

	require.NoError(t, g.AddImage(GigImage{ID: "a", URL: "/uploads/a.png"}))
	require.NoError(t, g.AddImage(GigImage{ID: "b", URL: "/uploads/b.png"}))

	assert.True(t, g.Images[0].IsPrimary)
	assert.False(t, g.Images[1].IsPrimary)
	assert.Equal(t, 1, g.Images[1].DisplayOrder)
	assert.Equal(t, 1, primaryCount(g))
}

func TestGigRemovePrimaryPromotesNext(t *testing.T) {
	g := &Gig{}
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddImage(GigImage{ID: id}))
	}

	removed, err := g.RemoveImage("a")
	require.NoError(t, err)

	assert.True(t, removed.IsPrimary)
	require.NotNil(t, g.PrimaryImage())
	assert.Equal(t, "b", g.PrimaryImage().ID)
	assert.Equal(t, 1, primaryCount(g))
}

func TestGigRemoveNonPrimaryKeepsPrimary(t *testing.T) {
	g := &Gig{}
	for _, id := range []string{"a", "b"} {
		require.NoError(t, g.AddImage(GigImage{ID: id}))
	}

	_, err := g.RemoveImage("b")
	require.NoError(t, err)

	assert.Equal(t, "a", g.PrimaryImage().ID)
}

func TestGigRemoveLastImageLeavesNoPrimary(t *testing.T) {
	g := &Gig{}
	require.NoError(t, g.AddImage(GigImage{ID: "a"}))

	_, err := g.RemoveImage("a")
	require.NoError(t, err)

	assert.Nil(t, g.PrimaryImage())
	assert.Empty(t, g.Images)
}

func TestGigRemoveUnknownImage(t *testing.T) {
	g := &Gig{}

	_, err := g.RemoveImage("missing")

	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestGigSetPrimaryImage(t *testing.T) {
	g := &Gig{}
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddImage(GigImage{ID: id}))
	}

	require.NoError(t, g.SetPrimaryImage("c"))
	assert.Equal(t, "c", g.PrimaryImage().ID)
	assert.Equal(t, 1, primaryCount(g))

	assert.ErrorIs(t, g.SetPrimaryImage("zzz"), ErrImageNotFound)
	assert.Equal(t, "c", g.PrimaryImage().ID)
}

func TestGigImageLimit(t *testing.T) {
	g := &Gig{}
	for i := 0; i < MaxGigImages; i++ {
		require.NoError(t, g.AddImage(GigImage{ID: fmt.Sprint(i)}))
	}

	assert.ErrorIs(t, g.AddImage(GigImage{ID: "overflow"}), ErrTooManyImages)
}
