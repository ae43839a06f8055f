package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Outcome describes what a cart mutation actually did. Mutations never
// return errors; a violated quantity constraint shows up here instead, so
// callers can tell "nothing needed to happen" from "the limit was hit".
type Outcome string

const (
	// OutcomeApplied means the mutation took effect in full.
	OutcomeApplied Outcome = "applied"
	// OutcomeSaturated means the quantity was clamped at MaxLineQuantity.
	OutcomeSaturated Outcome = "saturated"
	// OutcomeRejected means the whole mutation was dropped with no partial
	// effect.
	OutcomeRejected Outcome = "rejected"
	// OutcomeRemoved means the line was removed from the cart.
	OutcomeRemoved Outcome = "removed"
	// OutcomeNotFound means no line exists for the given book.
	OutcomeNotFound Outcome = "not_found"
)

// MutationResult reports the effect of a cart mutation.
type MutationResult struct {
	Outcome   Outcome
	BookID    int
	Requested int
	// Applied is the quantity delta that actually took effect.
	Applied int
	// Quantity is the line quantity after the mutation (0 when absent).
	Quantity int
}

// PriceCorrection carries the server's authoritative price for one book,
// reported at order submission time.
type PriceCorrection struct {
	BookID      int     `json:"book_id"`
	ActualPrice float64 `json:"actual_price"`
}

// Service owns the Registry and exposes atomic mutation operations.
// Mutations are serialized by a mutex and the registry is persisted after
// every change; persistence failures are logged and never surfaced to the
// mutating caller.
type Service struct {
	mu     sync.Mutex
	repo   RegistryRepository
	logger *slog.Logger
	reg    *Registry
}

// NewService restores the registry from the repository and returns a ready
// service. A missing or legacy-format persisted payload is handled by the
// repository; only a failing storage backend is an error.
func NewService(ctx context.Context, repo RegistryRepository, logger *slog.Logger) (*Service, error) {
	reg, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore cart registry: %w", err)
	}
	return &Service{
		repo:   repo,
		logger: logger,
		reg:    reg,
	}, nil
}

// Add merges qty copies of the book into the active cart. The whole call is
// rejected, with no partial effect, when the resulting quantity would exceed
// MaxLineQuantity.
func (s *Service) Add(ctx context.Context, book Book, qty int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.reg.activeCart()
	res := MutationResult{BookID: book.ID, Requested: qty}

	if qty <= 0 {
		res.Outcome = OutcomeRejected
		res.Quantity = active.Quantity(book.ID)
		return res
	}

	if i := active.FindIndex(book.ID); i >= 0 {
		line := &active.Lines[i]
		newQty := line.Quantity + qty
		if newQty > MaxLineQuantity {
			res.Outcome = OutcomeRejected
			res.Quantity = line.Quantity
			return res
		}
		line.Quantity = newQty
		line.recalcTotal()
		res.Outcome = OutcomeApplied
		res.Applied = qty
		res.Quantity = newQty
	} else {
		if qty > MaxLineQuantity {
			res.Outcome = OutcomeRejected
			return res
		}
		line := Line{
			BookID:        book.ID,
			Title:         book.Title,
			AuthorName:    book.AuthorName,
			CategoryName:  book.CategoryName,
			CoverPhoto:    book.CoverPhoto,
			Price:         book.Price,
			DiscountPrice: book.DiscountPrice,
			Quantity:      qty,
		}
		line.recalcTotal()
		active.Lines = append(active.Lines, line)
		res.Outcome = OutcomeApplied
		res.Applied = qty
		res.Quantity = qty
	}

	s.persist(ctx)

	s.logger.InfoContext(ctx, "book added to cart",
		slog.Int("book_id", book.ID),
		slog.Int("quantity", res.Quantity),
	)
	return res
}

// Increase increments the line's quantity by one, saturating at
// MaxLineQuantity. Unlike Add, a line already at the ceiling is not an
// error and not a rejection: the quantity simply stays put.
func (s *Service) Increase(ctx context.Context, bookID int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.reg.activeCart()
	res := MutationResult{BookID: bookID, Requested: 1}

	i := active.FindIndex(bookID)
	if i < 0 {
		res.Outcome = OutcomeNotFound
		return res
	}

	line := &active.Lines[i]
	if line.Quantity >= MaxLineQuantity {
		res.Outcome = OutcomeSaturated
		res.Quantity = line.Quantity
		return res
	}

	line.Quantity++
	line.recalcTotal()
	res.Outcome = OutcomeApplied
	res.Applied = 1
	res.Quantity = line.Quantity

	s.persist(ctx)
	return res
}

// Decrease decrements the line's quantity by one. A line at quantity 1 is
// removed entirely; quantity 0 lines are never retained.
func (s *Service) Decrease(ctx context.Context, bookID int) MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.reg.activeCart()
	res := MutationResult{BookID: bookID, Requested: -1}

	i := active.FindIndex(bookID)
	if i < 0 {
		res.Outcome = OutcomeNotFound
		return res
	}

	line := &active.Lines[i]
	if line.Quantity <= 1 {
		active.Lines = append(active.Lines[:i], active.Lines[i+1:]...)
		res.Outcome = OutcomeRemoved
		res.Applied = -1
		res.Quantity = 0
	} else {
		line.Quantity--
		line.recalcTotal()
		res.Outcome = OutcomeApplied
		res.Applied = -1
		res.Quantity = line.Quantity
	}

	s.persist(ctx)
	return res
}

// Quantity returns the active cart's quantity for the given book, or 0.
func (s *Service) Quantity(bookID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.activeCart().Quantity(bookID)
}

// Total sums effective price times quantity over the active cart.
func (s *Service) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.activeCart().Total()
}

// LineCount returns the number of distinct books in the active cart.
func (s *Service) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.activeCart().LineCount()
}

// ActiveCart returns a deep copy of the cart selected by the active-user
// selector. All mutations go through the service; handing out a copy keeps
// it that way.
func (s *Service) ActiveCart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.activeCart().clone()
}

// ActiveUserID returns the current selector value (GuestUserID when no user
// is active).
func (s *Service) ActiveUserID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.ActiveUserID
}

// SetActiveUser changes the active-cart selector without touching cart
// contents. Pass GuestUserID to switch back to the guest cart on logout.
func (s *Service) SetActiveUser(ctx context.Context, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reg.ActiveUserID = userID
	s.persist(ctx)
}

// MigrateGuestCart merges the guest cart into the given user's cart and
// makes that user active. Quantities for books present in both carts are
// summed and clamped at MaxLineQuantity. The guest cart is cleared
// unconditionally afterwards; the migration is one-directional and the
// guest cart cannot be recovered by logging out again.
func (s *Service) MigrateGuestCart(ctx context.Context, userID int) {
	if userID == GuestUserID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reg.Guest.IsEmpty() {
		s.reg.ActiveUserID = userID
		s.persist(ctx)
		return
	}

	target := s.reg.userCart(userID)
	merged := 0
	for _, guestLine := range s.reg.Guest.Lines {
		if i := target.FindIndex(guestLine.BookID); i >= 0 {
			line := &target.Lines[i]
			line.Quantity += guestLine.Quantity
			if line.Quantity > MaxLineQuantity {
				line.Quantity = MaxLineQuantity
			}
			line.recalcTotal()
		} else {
			target.Lines = append(target.Lines, guestLine)
		}
		merged++
	}

	s.reg.Guest = Cart{}
	s.reg.ActiveUserID = userID
	s.persist(ctx)

	s.logger.InfoContext(ctx, "guest cart migrated",
		slog.Int("user_id", userID),
		slog.Int("lines_merged", merged),
	)
}

// ClearActiveCart empties whichever cart is currently active.
func (s *Service) ClearActiveCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	*s.reg.activeCart() = Cart{}
	s.persist(ctx)
}

// ReconcilePrices overwrites the base price of each corrected line in the
// active cart with the server's actual price and recomputes its total. A
// line that carried a discount has the discount price overwritten too: the
// server is authoritative, and after reconciliation the client no longer
// distinguishes which of the two it last saw. Lines not named in the
// corrections are untouched.
func (s *Service) ReconcilePrices(ctx context.Context, corrections []PriceCorrection) {
	if len(corrections) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.reg.activeCart()
	updated := 0
	for _, c := range corrections {
		i := active.FindIndex(c.BookID)
		if i < 0 {
			continue
		}
		line := &active.Lines[i]
		line.Price = c.ActualPrice
		if line.DiscountPrice != nil {
			actual := c.ActualPrice
			line.DiscountPrice = &actual
		}
		line.recalcTotal()
		updated++
	}

	if updated > 0 {
		s.persist(ctx)
		s.logger.InfoContext(ctx, "cart prices reconciled",
			slog.Int("lines_updated", updated),
		)
	}
}

// persist writes the registry through the repository. Writes are
// fire-and-forget: a failed write is logged and the in-memory state stays
// authoritative for the session.
func (s *Service) persist(ctx context.Context) {
	if err := s.repo.Save(ctx, s.reg); err != nil {
		s.logger.WarnContext(ctx, "failed to persist cart registry",
			slog.String("error", err.Error()),
		)
	}
}
