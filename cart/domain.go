// Package cart owns the persisted cart registry: one guest cart, one cart
// per known user, and the selector that decides which of them is active.
package cart

// MaxLineQuantity is the ceiling for a single book's quantity in a cart.
const MaxLineQuantity = 8

// Book is the catalog snapshot captured when a book is added to a cart.
// Display attributes are denormalized copies for offline rendering; they are
// not kept in sync with the catalog.
type Book struct {
	ID            int      `json:"id"`
	Title         string   `json:"book_title"`
	AuthorName    string   `json:"author_name"`
	CategoryName  string   `json:"category_name"`
	CoverPhoto    string   `json:"book_cover_photo"`
	Price         float64  `json:"book_price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
}

// Line is one book's presence in a cart.
type Line struct {
	BookID        int      `json:"book_id"`
	Title         string   `json:"book_title"`
	AuthorName    string   `json:"author_name"`
	CategoryName  string   `json:"category_name"`
	CoverPhoto    string   `json:"book_cover_photo"`
	Price         float64  `json:"book_price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Quantity      int      `json:"quantity"`
	Total         float64  `json:"total"`
}

// EffectivePrice returns the discount price when one is present and
// positive, otherwise the base price.
func (l Line) EffectivePrice() float64 {
	if l.DiscountPrice != nil && *l.DiscountPrice > 0 {
		return *l.DiscountPrice
	}
	return l.Price
}

// recalcTotal refreshes the denormalized line total.
func (l *Line) recalcTotal() {
	l.Total = l.EffectivePrice() * float64(l.Quantity)
}

// Cart is an insertion-ordered collection of lines, at most one per book.
type Cart struct {
	Lines []Line `json:"lines"`
}

// FindIndex returns the index of the line for the given book, or -1.
func (c *Cart) FindIndex(bookID int) int {
	for i := range c.Lines {
		if c.Lines[i].BookID == bookID {
			return i
		}
	}
	return -1
}

// Quantity returns the quantity for the given book, or 0 when absent.
func (c *Cart) Quantity(bookID int) int {
	if i := c.FindIndex(bookID); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// Total sums effective price times quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.EffectivePrice() * float64(l.Quantity)
	}
	return total
}

// LineCount returns the number of distinct books in the cart.
func (c *Cart) LineCount() int {
	return len(c.Lines)
}

// ItemCount returns the total number of copies across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// clone returns a deep copy of the cart.
func (c *Cart) clone() Cart {
	cp := Cart{Lines: make([]Line, len(c.Lines))}
	copy(cp.Lines, c.Lines)
	for i := range cp.Lines {
		if c.Lines[i].DiscountPrice != nil {
			dp := *c.Lines[i].DiscountPrice
			cp.Lines[i].DiscountPrice = &dp
		}
	}
	return cp
}

// GuestUserID is the selector value meaning "no authenticated user": the
// guest cart is active.
const GuestUserID = 0

// Registry is the process-wide persisted cart state: the guest cart, one
// cart per user id, and the active-cart selector.
type Registry struct {
	Guest        Cart          `json:"guest"`
	Users        map[int]*Cart `json:"users"`
	ActiveUserID int           `json:"active_user_id"`
}

// NewRegistry returns an empty registry with the guest cart active.
func NewRegistry() *Registry {
	return &Registry{
		Users:        make(map[int]*Cart),
		ActiveUserID: GuestUserID,
	}
}

// activeCart returns a pointer to the cart selected by ActiveUserID,
// creating the user's cart on first access.
func (r *Registry) activeCart() *Cart {
	if r.ActiveUserID == GuestUserID {
		return &r.Guest
	}
	return r.userCart(r.ActiveUserID)
}

// userCart returns the cart for the given user, creating it when absent.
func (r *Registry) userCart(userID int) *Cart {
	if r.Users == nil {
		r.Users = make(map[int]*Cart)
	}
	c, ok := r.Users[userID]
	if !ok {
		c = &Cart{}
		r.Users[userID] = c
	}
	return c
}
