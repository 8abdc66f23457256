package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(2, 5, 7)
	assert.Equal(t, PageMeta{Page: 2, Limit: 5, Total: 7, TotalPages: 2, HasNext: false, HasPrev: true}, meta)

	meta = NewPageMeta(1, 5, 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)

	meta = NewPageMeta(1, math.MaxInt, 2)
	assert.Equal(t, 1, meta.TotalPages)
	assert.False(t, meta.HasNext)
}
