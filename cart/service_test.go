package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
)

// --- Test helpers ---

// memStore is an in-memory localstate.Store.
type memStore struct {
	data map[string][]byte
	// failSets makes every Set fail, for fire-and-forget coverage.
	failSets bool
	sets     int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, apperrors.NotFound("state key", key)
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.sets++
	if m.failSets {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc, err := NewService(context.Background(), NewStateRepository(store, testLogger()), testLogger())
	require.NoError(t, err)
	return svc, store
}

func sampleBook() Book {
	return Book{
		ID:           1,
		Title:        "The Go Programming Language",
		AuthorName:   "Alan Donovan",
		CategoryName: "Programming",
		CoverPhoto:   "covers/gopl.jpg",
		Price:        10,
	}
}

func discountedBook() Book {
	return Book{
		ID:            2,
		Title:         "Designing Data-Intensive Applications",
		AuthorName:    "Martin Kleppmann",
		CategoryName:  "Programming",
		CoverPhoto:    "covers/ddia.jpg",
		Price:         20,
		DiscountPrice: ptr(15),
	}
}

// ============================================================================
// Add
// ============================================================================

func TestAdd_NewLine(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Add(context.Background(), sampleBook(), 2)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 2, res.Quantity)
	assert.Equal(t, 2, svc.Quantity(1))
}

func TestAdd_MergesQuantities(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 3)
	res := svc.Add(ctx, sampleBook(), 4)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, 7, svc.Quantity(1))
}

func TestAdd_RejectsOverflowOnNewLine(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Add(context.Background(), sampleBook(), MaxLineQuantity+1)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 0, svc.Quantity(1))
}

func TestAdd_RejectsOverflowOnMerge_NoPartialEffect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 6)
	res := svc.Add(ctx, sampleBook(), 3)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, 0, res.Applied)
	// Entire call dropped: quantity stays at 6, not clamped to 8.
	assert.Equal(t, 6, svc.Quantity(1))
}

func TestAdd_ExactlyAtCeiling(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Add(context.Background(), sampleBook(), MaxLineQuantity)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, MaxLineQuantity, svc.Quantity(1))
}

func TestAdd_NonPositiveQuantityRejected(t *testing.T) {
	svc, _ := newTestService(t)

	assert.Equal(t, OutcomeRejected, svc.Add(context.Background(), sampleBook(), 0).Outcome)
	assert.Equal(t, OutcomeRejected, svc.Add(context.Background(), sampleBook(), -1).Outcome)
	assert.Equal(t, 0, svc.Quantity(1))
}

// ============================================================================
// Increase / Decrease
// ============================================================================

func TestIncrease_Increments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 1)
	res := svc.Increase(ctx, 1)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, 2, res.Quantity)
}

func TestIncrease_SaturatesAtCeiling(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), MaxLineQuantity)
	res := svc.Increase(ctx, 1)

	assert.Equal(t, OutcomeSaturated, res.Outcome)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, MaxLineQuantity, res.Quantity)
	assert.Equal(t, MaxLineQuantity, svc.Quantity(1))
}

func TestIncrease_MissingLine(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Increase(context.Background(), 99)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestDecrease_Decrements(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 3)
	res := svc.Decrease(ctx, 1)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, 2, res.Quantity)
}

func TestDecrease_RemovesLineAtOne(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 1)
	res := svc.Decrease(ctx, 1)

	assert.Equal(t, OutcomeRemoved, res.Outcome)
	assert.Equal(t, 0, res.Quantity)
	assert.Equal(t, 0, svc.Quantity(1))
	assert.Equal(t, 0, svc.LineCount())
}

func TestDecrease_MissingLine(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Decrease(context.Background(), 99)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
}

// ============================================================================
// Totals
// ============================================================================

func TestTotal_UsesEffectivePrices(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 2)     // 10 * 2
	svc.Add(ctx, discountedBook(), 1) // 15 * 1

	assert.Equal(t, 35.0, svc.Total())
}

// ============================================================================
// Active user / migration
// ============================================================================

func TestSetActiveUser_DoesNotTouchCartContents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 2)
	svc.SetActiveUser(ctx, 42)

	// User 42's cart is empty; the guest cart still holds the line.
	assert.Equal(t, 0, svc.Quantity(1))
	assert.Equal(t, 42, svc.ActiveUserID())

	svc.SetActiveUser(ctx, GuestUserID)
	assert.Equal(t, 2, svc.Quantity(1))
}

func TestMigrateGuestCart_EmptyGuestOnlySwitchesSelector(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Seed the user's cart, then return to guest with an empty guest cart.
	svc.SetActiveUser(ctx, 42)
	svc.Add(ctx, sampleBook(), 2)
	svc.SetActiveUser(ctx, GuestUserID)

	svc.MigrateGuestCart(ctx, 42)

	assert.Equal(t, 42, svc.ActiveUserID())
	assert.Equal(t, 2, svc.Quantity(1))
}

func TestMigrateGuestCart_MergesAndClamps(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// User cart: {A: 2, B: 1}
	svc.SetActiveUser(ctx, 42)
	svc.Add(ctx, sampleBook(), 2)
	svc.Add(ctx, discountedBook(), 1)

	// Guest cart: {A: 3}
	svc.SetActiveUser(ctx, GuestUserID)
	svc.Add(ctx, sampleBook(), 3)

	svc.MigrateGuestCart(ctx, 42)

	assert.Equal(t, 42, svc.ActiveUserID())
	assert.Equal(t, 5, svc.Quantity(1))
	assert.Equal(t, 1, svc.Quantity(2))

	// Guest cart cleared unconditionally.
	svc.SetActiveUser(ctx, GuestUserID)
	assert.Equal(t, 0, svc.LineCount())
}

func TestMigrateGuestCart_SaturatesMergedQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.SetActiveUser(ctx, 42)
	svc.Add(ctx, sampleBook(), 6)

	svc.SetActiveUser(ctx, GuestUserID)
	svc.Add(ctx, sampleBook(), 6)

	svc.MigrateGuestCart(ctx, 42)

	assert.Equal(t, MaxLineQuantity, svc.Quantity(1))
}

func TestMigrateGuestCart_CopiesNewLinesVerbatim(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, discountedBook(), 4)
	svc.MigrateGuestCart(ctx, 42)

	c := svc.ActiveCart()
	require.Equal(t, 1, c.LineCount())
	assert.Equal(t, 4, c.Lines[0].Quantity)
	assert.Equal(t, 15.0, *c.Lines[0].DiscountPrice)
}

func TestMigrateGuestCart_GuestTargetIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 2)
	svc.MigrateGuestCart(ctx, GuestUserID)

	assert.Equal(t, GuestUserID, svc.ActiveUserID())
	assert.Equal(t, 2, svc.Quantity(1))
}

// ============================================================================
// Clear / reconcile
// ============================================================================

func TestClearActiveCart_OnlyClearsActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 2)
	svc.SetActiveUser(ctx, 42)
	svc.Add(ctx, discountedBook(), 1)

	svc.ClearActiveCart(ctx)
	assert.Equal(t, 0, svc.LineCount())

	svc.SetActiveUser(ctx, GuestUserID)
	assert.Equal(t, 1, svc.LineCount())
}

func TestReconcilePrices_UpdatesNamedLinesOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 2)     // book 1, price 10
	svc.Add(ctx, discountedBook(), 1) // book 2, price 20, discount 15

	svc.ReconcilePrices(ctx, []PriceCorrection{{BookID: 1, ActualPrice: 12}})

	c := svc.ActiveCart()
	i := c.FindIndex(1)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, 12.0, c.Lines[i].Price)
	assert.Equal(t, 24.0, c.Lines[i].Total)

	j := c.FindIndex(2)
	require.GreaterOrEqual(t, j, 0)
	assert.Equal(t, 20.0, c.Lines[j].Price)
	assert.Equal(t, 15.0, *c.Lines[j].DiscountPrice)
}

func TestReconcilePrices_CollapsesDiscountToActual(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, discountedBook(), 2)
	svc.ReconcilePrices(ctx, []PriceCorrection{{BookID: 2, ActualPrice: 18}})

	c := svc.ActiveCart()
	line := c.Lines[c.FindIndex(2)]
	assert.Equal(t, 18.0, line.Price)
	assert.Equal(t, 18.0, *line.DiscountPrice)
	assert.Equal(t, 36.0, line.Total)
}

func TestReconcilePrices_UnknownBookIgnored(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Add(ctx, sampleBook(), 1)
	svc.ReconcilePrices(ctx, []PriceCorrection{{BookID: 999, ActualPrice: 1}})

	assert.Equal(t, 10.0, svc.Total())
}

// ============================================================================
// Persistence behavior
// ============================================================================

func TestService_StateSurvivesRestart(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	svc, err := NewService(ctx, NewStateRepository(store, testLogger()), testLogger())
	require.NoError(t, err)
	svc.Add(ctx, sampleBook(), 3)
	svc.MigrateGuestCart(ctx, 42)

	restored, err := NewService(ctx, NewStateRepository(store, testLogger()), testLogger())
	require.NoError(t, err)

	assert.Equal(t, 42, restored.ActiveUserID())
	assert.Equal(t, 3, restored.Quantity(1))
}

func TestService_PersistFailureDoesNotSurface(t *testing.T) {
	store := newMemStore()
	store.failSets = true
	ctx := context.Background()

	svc, err := NewService(ctx, NewStateRepository(store, testLogger()), testLogger())
	require.NoError(t, err)

	res := svc.Add(ctx, sampleBook(), 2)

	// The mutation applies in memory even though the write failed.
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, 2, svc.Quantity(1))
	assert.Positive(t, store.sets)
}
