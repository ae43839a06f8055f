package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Eakan-Git/Bookworm/pkg/pagination"
)

const booksPath = "/api/v1/books"

// Category is a book category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"category_name"`
	Desc string `json:"category_desc,omitempty"`
}

// Author is a book author.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"author_name"`
	Bio  string `json:"author_bio,omitempty"`
}

// Discount is an active discount attached to a book.
type Discount struct {
	ID        int      `json:"id"`
	BookID    int      `json:"book_id"`
	Price     *float64 `json:"discount_price"`
	StartDate string   `json:"discount_start_date,omitempty"`
	EndDate   string   `json:"discount_end_date,omitempty"`
}

// Rating is a book's review average.
type Rating struct {
	Average float64 `json:"average_rating"`
}

// Book is a catalog book. Category, author, discount and rating are
// populated depending on the endpoint; list endpoints omit the rating, the
// popular endpoint adds a review count.
type Book struct {
	ID          int       `json:"id"`
	Title       string    `json:"book_title"`
	Summary     string    `json:"book_summary,omitempty"`
	Price       float64   `json:"book_price"`
	CoverPhoto  string    `json:"book_cover_photo,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Author      *Author   `json:"author,omitempty"`
	Discount    *Discount `json:"discount,omitempty"`
	Rating      *Rating   `json:"rating,omitempty"`
	ReviewCount int       `json:"review_count,omitempty"`
}

// EffectivePrice returns the discount price when one is active and
// positive, otherwise the base price.
func (b Book) EffectivePrice() float64 {
	if b.Discount != nil && b.Discount.Price != nil && *b.Discount.Price > 0 {
		return *b.Discount.Price
	}
	return b.Price
}

// SortDirection orders query results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// BookSort selects the list ordering.
type BookSort string

const (
	// SortOnSale orders by discount amount.
	SortOnSale BookSort = "on_sale"
	// SortPopularity orders by review count.
	SortPopularity BookSort = "popularity"
	// SortPrice orders by final price.
	SortPrice BookSort = "price"
)

// BookFilter narrows and orders a book listing. Zero values mean "not
// filtered"; the backend defaults sorting to on_sale descending.
type BookFilter struct {
	pagination.Params

	Search     string
	CategoryID int
	AuthorID   int
	// RatingStar keeps books whose average rating is at least this value.
	RatingStar int

	SortBy        BookSort
	SortDirection SortDirection
}

func (f BookFilter) query() string {
	v := f.Params.Query()
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.CategoryID > 0 {
		v.Set("category_id", strconv.Itoa(f.CategoryID))
	}
	if f.AuthorID > 0 {
		v.Set("author_id", strconv.Itoa(f.AuthorID))
	}
	if f.RatingStar > 0 {
		v.Set("rating_star", strconv.Itoa(f.RatingStar))
	}
	if f.SortBy != "" {
		v.Set("sort_by", string(f.SortBy))
	}
	if f.SortDirection != "" {
		v.Set("sort_direction", string(f.SortDirection))
	}
	return v.Encode()
}

// ListBooks returns a filtered, sorted page of the catalog.
func (c *Client) ListBooks(ctx context.Context, filter BookFilter) (pagination.Result[Book], error) {
	var result pagination.Result[Book]
	err := c.getJSON(ctx, booksPath+"?"+filter.query(), &result)
	return result, err
}

// GetBook returns one book with full author, category, discount and rating
// details.
func (c *Client) GetBook(ctx context.Context, id int) (*Book, error) {
	var book Book
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", booksPath, id), &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// OnSaleBooks returns the books with the biggest discounts.
func (c *Client) OnSaleBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	err := c.getJSON(ctx, booksPath+"/on-sale", &books)
	return books, err
}

// PopularBooks returns the most-reviewed books.
func (c *Client) PopularBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	err := c.getJSON(ctx, booksPath+"/popular", &books)
	return books, err
}

// RecommendedBooks returns the highest-rated books.
func (c *Client) RecommendedBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	err := c.getJSON(ctx, booksPath+"/recommended", &books)
	return books, err
}
