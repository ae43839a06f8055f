package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

// ============================================================================
// Line Tests
// ============================================================================

func TestLine_EffectivePrice_Base(t *testing.T) {
	l := Line{Price: 10}
	assert.Equal(t, 10.0, l.EffectivePrice())
}

func TestLine_EffectivePrice_Discounted(t *testing.T) {
	l := Line{Price: 20, DiscountPrice: ptr(15)}
	assert.Equal(t, 15.0, l.EffectivePrice())
}

func TestLine_EffectivePrice_ZeroDiscountIgnored(t *testing.T) {
	l := Line{Price: 20, DiscountPrice: ptr(0)}
	assert.Equal(t, 20.0, l.EffectivePrice())
}

func TestLine_EffectivePrice_NegativeDiscountIgnored(t *testing.T) {
	l := Line{Price: 20, DiscountPrice: ptr(-3)}
	assert.Equal(t, 20.0, l.EffectivePrice())
}

// ============================================================================
// Cart Tests
// ============================================================================

func TestCart_Total(t *testing.T) {
	c := Cart{Lines: []Line{
		{BookID: 1, Price: 10, Quantity: 2},
		{BookID: 2, Price: 20, DiscountPrice: ptr(15), Quantity: 1},
	}}
	// 10*2 + 15*1 = 35
	assert.Equal(t, 35.0, c.Total())
}

func TestCart_Total_Empty(t *testing.T) {
	c := Cart{}
	assert.Equal(t, 0.0, c.Total())
}

func TestCart_Quantity(t *testing.T) {
	c := Cart{Lines: []Line{{BookID: 7, Quantity: 3}}}
	assert.Equal(t, 3, c.Quantity(7))
	assert.Equal(t, 0, c.Quantity(8))
}

func TestCart_FindIndex(t *testing.T) {
	c := Cart{Lines: []Line{{BookID: 1}, {BookID: 2}}}
	assert.Equal(t, 0, c.FindIndex(1))
	assert.Equal(t, 1, c.FindIndex(2))
	assert.Equal(t, -1, c.FindIndex(3))
}

func TestCart_Counts(t *testing.T) {
	c := Cart{Lines: []Line{{BookID: 1, Quantity: 2}, {BookID: 2, Quantity: 5}}}
	assert.Equal(t, 2, c.LineCount())
	assert.Equal(t, 7, c.ItemCount())
	assert.False(t, c.IsEmpty())
	assert.True(t, (&Cart{}).IsEmpty())
}

func TestCart_CloneIsDeep(t *testing.T) {
	c := Cart{Lines: []Line{{BookID: 1, Price: 10, DiscountPrice: ptr(8), Quantity: 1}}}
	cp := c.clone()

	cp.Lines[0].Quantity = 5
	*cp.Lines[0].DiscountPrice = 1

	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, 8.0, *c.Lines[0].DiscountPrice)
}

// ============================================================================
// Registry Tests
// ============================================================================

func TestRegistry_ActiveCart_Guest(t *testing.T) {
	r := NewRegistry()
	assert.Same(t, &r.Guest, r.activeCart())
}

func TestRegistry_ActiveCart_User(t *testing.T) {
	r := NewRegistry()
	r.ActiveUserID = 42

	c := r.activeCart()
	assert.Same(t, r.Users[42], c)
}

func TestRegistry_UserCart_CreatedOnce(t *testing.T) {
	r := NewRegistry()
	first := r.userCart(7)
	second := r.userCart(7)
	assert.Same(t, first, second)
}
