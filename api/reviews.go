package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Eakan-Git/Bookworm/pkg/pagination"
	"github.com/Eakan-Git/Bookworm/pkg/validator"
)

// Review is a posted book review.
type Review struct {
	ID         int    `json:"id"`
	BookID     int    `json:"book_id"`
	Title      string `json:"review_title"`
	Details    string `json:"review_details,omitempty"`
	RatingStar int    `json:"rating_star"`
	Date       string `json:"review_date,omitempty"`
}

// ReviewInput is the client-side review form, validated before submission.
type ReviewInput struct {
	Title      string `json:"review_title" validate:"required,max=120"`
	Details    string `json:"review_details,omitempty" validate:"max=3000"`
	RatingStar int    `json:"rating_star" validate:"required,gte=1,lte=5"`
}

// ReviewFilter pages and orders a book's reviews.
type ReviewFilter struct {
	pagination.Params

	// RatingStar keeps only reviews with exactly this star rating.
	RatingStar int

	// SortDirection orders by review date, newest first by default.
	SortDirection SortDirection
}

func (f ReviewFilter) query() string {
	v := f.Params.Query()
	if f.RatingStar > 0 {
		v.Set("rating_star", strconv.Itoa(f.RatingStar))
	}
	if f.SortDirection != "" {
		v.Set("sort_by", "date")
		v.Set("sort_direction", string(f.SortDirection))
	}
	return v.Encode()
}

// BookReviews returns a page of reviews for one book.
func (c *Client) BookReviews(ctx context.Context, bookID int, filter ReviewFilter) (pagination.Result[Review], error) {
	var result pagination.Result[Review]
	err := c.getJSON(ctx, fmt.Sprintf("%s/%d/reviews?%s", booksPath, bookID, filter.query()), &result)
	return result, err
}

// CreateReview posts a review for the given book. The form is validated
// locally first so the usual rejects never leave the client.
func (c *Client) CreateReview(ctx context.Context, bookID int, input ReviewInput) (*Review, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	var review Review
	path := fmt.Sprintf("%s/%d/reviews", booksPath, bookID)
	if err := c.postJSON(ctx, path, input, &review); err != nil {
		return nil, err
	}
	return &review, nil
}
