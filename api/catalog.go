package api

import (
	"context"
	"fmt"
)

const (
	categoriesPath = "/api/v1/categories"
	authorsPath    = "/api/v1/authors"
)

// Categories returns all book categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := c.getJSON(ctx, categoriesPath, &categories)
	return categories, err
}

// GetCategory returns one category by id.
func (c *Client) GetCategory(ctx context.Context, id int) (*Category, error) {
	var category Category
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", categoriesPath, id), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Authors returns all authors.
func (c *Client) Authors(ctx context.Context) ([]Author, error) {
	var authors []Author
	err := c.getJSON(ctx, authorsPath, &authors)
	return authors, err
}

// GetAuthor returns one author by id.
func (c *Client) GetAuthor(ctx context.Context, id int) (*Author, error) {
	var author Author
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", authorsPath, id), &author); err != nil {
		return nil, err
	}
	return &author, nil
}
