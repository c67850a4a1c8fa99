package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDerivesTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{21, 4, 6},
	}
	for _, tc := range cases {
		page := New([]int{}, tc.total, 1, tc.limit)
		assert.Equal(t, tc.want, page.Pagination.TotalPages, "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestNewNormalizesNilData(t *testing.T) {
	page := New[string](nil, 0, 1, 10)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(0, 10))
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 10, Offset(2, 10))
	assert.Equal(t, 40, Offset(5, 10))
}
