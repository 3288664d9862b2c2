package promo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(from, to string) (time.Time, time.Time) {
	f, err := time.Parse(time.RFC3339, from)
	if err != nil {
		panic(err)
	}
	t, err := time.Parse(time.RFC3339, to)
	if err != nil {
		panic(err)
	}
	return f, t
}

func TestPromotion_ActiveAt(t *testing.T) {
	from, to := window("2026-08-01T00:00:00Z", "2026-08-31T23:59:59Z")
	p := Promotion{ID: 1, DiscountPercent: 10, ValidFrom: from, ValidTo: to}

	assert.True(t, p.ActiveAt(from), "lower bound is inclusive")
	assert.True(t, p.ActiveAt(to), "upper bound is inclusive")
	assert.True(t, p.ActiveAt(from.Add(12*time.Hour)))
	assert.False(t, p.ActiveAt(from.Add(-time.Second)))
	assert.False(t, p.ActiveAt(to.Add(time.Second)))
}

func TestPromotion_Validate(t *testing.T) {
	from, to := window("2026-08-01T00:00:00Z", "2026-08-31T00:00:00Z")

	require.NoError(t, Promotion{DiscountPercent: 0, ValidFrom: from, ValidTo: to}.Validate())
	require.NoError(t, Promotion{DiscountPercent: 99, ValidFrom: from, ValidTo: to}.Validate())

	err := Promotion{DiscountPercent: 100, ValidFrom: from, ValidTo: to}.Validate()
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	err = Promotion{DiscountPercent: -5, ValidFrom: from, ValidTo: to}.Validate()
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	err = Promotion{DiscountPercent: 10, ValidFrom: to, ValidTo: from}.Validate()
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestBest_MaxDiscountWins(t *testing.T) {
	best := Best([]Promotion{
		{ID: 1, DiscountPercent: 10},
		{ID: 2, DiscountPercent: 30},
		{ID: 3, DiscountPercent: 20},
	})

	require.NotNil(t, best)
	assert.Equal(t, int64(2), best.ID)
	assert.Equal(t, 30, best.DiscountPercent)
}

func TestBest_TieBreaksOnLowestID(t *testing.T) {
	promotions := []Promotion{
		{ID: 7, DiscountPercent: 25},
		{ID: 3, DiscountPercent: 25},
		{ID: 9, DiscountPercent: 25},
	}

	best := Best(promotions)
	require.NotNil(t, best)
	assert.Equal(t, int64(3), best.ID)

	// Order of the input must not change the winner.
	reversed := []Promotion{promotions[2], promotions[0], promotions[1]}
	assert.Equal(t, best.ID, Best(reversed).ID)
}

func TestBest_Empty(t *testing.T) {
	assert.Nil(t, Best(nil))
	assert.Nil(t, Best([]Promotion{}))
}
