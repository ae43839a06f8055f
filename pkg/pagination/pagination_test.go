package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Query(t *testing.T) {
	q := Params{Page: 3, Size: 20}.Query()
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "20", q.Get("size"))
}

func TestParams_Normalize(t *testing.T) {
	p := Params{Page: 0, Size: 500}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Size)

	p = Params{Page: -2, Size: 0}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Size)
}

func TestMeta_TotalPages(t *testing.T) {
	assert.Equal(t, 5, Meta{Total: 50, Size: 10}.TotalPages())
	assert.Equal(t, 6, Meta{Total: 51, Size: 10}.TotalPages())
	assert.Equal(t, 0, Meta{Total: 10, Size: 0}.TotalPages())
	assert.Equal(t, 0, Meta{Total: 0, Size: 10}.TotalPages())
}

func TestMeta_HasNextHasPrev(t *testing.T) {
	m := Meta{Total: 30, Page: 2, Size: 10}
	assert.True(t, m.HasNext())
	assert.True(t, m.HasPrev())

	first := Meta{Total: 30, Page: 1, Size: 10}
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrev())

	last := Meta{Total: 30, Page: 3, Size: 10}
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrev())
}
