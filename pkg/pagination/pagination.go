package pagination

import (
	"net/url"
	"strconv"
)

// Params holds pagination parameters sent as query strings.
type Params struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// DefaultParams returns the backend's pagination defaults.
func DefaultParams() Params {
	return Params{
		Page: 1,
		Size: 10,
	}
}

// Normalize clamps out-of-range values back to usable ones. The backend
// rejects page < 1 and size outside [1, 100].
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultParams().Size
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

// Query encodes the parameters into URL query values.
func (p Params) Query() url.Values {
	p = p.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("size", strconv.Itoa(p.Size))
	return v
}

// Meta is the pagination metadata block returned alongside paged data.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// TotalPages derives the page count from the metadata.
func (m Meta) TotalPages() int {
	if m.Size <= 0 {
		return 0
	}
	pages := m.Total / m.Size
	if m.Total%m.Size > 0 {
		pages++
	}
	return pages
}

// HasNext reports whether a further page exists.
func (m Meta) HasNext() bool {
	return m.Page < m.TotalPages()
}

// HasPrev reports whether a previous page exists.
func (m Meta) HasPrev() bool {
	return m.Page > 1
}

// Result wraps a paginated response body.
type Result[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}
