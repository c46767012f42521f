package pagination

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// page 按窗口从有序切片中取出一页
func page(all []int, raw string, size int) *Page[int] {
	w := New(int64(len(all)), raw, size)
	return NewPage(w, all[w.Offset():w.Offset()+w.Limit()])
}

func TestWindow_PagesPartitionCollection(t *testing.T) {
	for size := 1; size <= 12; size++ {
		for total := 0; total <= 40; total++ {
			t.Run(fmt.Sprintf("N=%d/M=%d", size, total), func(t *testing.T) {
				all := seq(total)
				first := New(int64(total), "1", size)

				wantPages := (total + size - 1) / size
				if wantPages == 0 {
					wantPages = 1
				}
				require.Equal(t, wantPages, first.NumPages)

				seen := make(map[int]bool, total)
				for n := 1; n <= first.NumPages; n++ {
					p := page(all, strconv.Itoa(n), size)
					for _, it := range p.Items {
						assert.False(t, seen[it], "item %d on two pages", it)
						seen[it] = true
					}
					if n == first.NumPages && total > 0 {
						want := total % size
						if want == 0 {
							want = size
						}
						assert.Equal(t, want, p.Len())
					} else if total > 0 {
						assert.Equal(t, size, p.Len())
					}
				}
				assert.Len(t, seen, total)
			})
		}
	}
}

func TestNew_ClampsPageNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-3", 1},
		{"2", 2},
		{"3", 3},
		{"4", 3},
		{"1000", 3},
		{"last", 3},
		{" 2 ", 2},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			w := New(25, tc.raw, 10)
			assert.Equal(t, tc.want, w.Number)
			assert.Equal(t, 3, w.NumPages)
		})
	}
}

func TestNew_EmptyCollection(t *testing.T) {
	w := New(0, "5", 10)
	assert.Equal(t, 1, w.Number)
	assert.Equal(t, 1, w.NumPages)
	assert.Equal(t, 0, w.Offset())
	assert.Equal(t, 0, w.Limit())

	p := NewPage[string](w, nil)
	assert.NotNil(t, p.Items)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrevious())
	assert.Equal(t, 0, p.StartIndex())
}

func TestPage_Navigation(t *testing.T) {
	all := seq(13)

	p1 := page(all, "1", 10)
	assert.Equal(t, 10, p1.Len())
	assert.True(t, p1.HasNext())
	assert.False(t, p1.HasPrevious())
	assert.Equal(t, 2, p1.NextPageNumber())
	assert.Equal(t, []int{1, 2}, p1.PageRange())

	p2 := page(all, "2", 10)
	assert.Equal(t, []int{10, 11, 12}, p2.Items)
	assert.False(t, p2.HasNext())
	assert.True(t, p2.HasPrevious())
	assert.Equal(t, 1, p2.PreviousPageNumber())
	assert.Equal(t, 11, p2.StartIndex())
	assert.True(t, p2.HasOtherPages())
}

func TestWindow_OffsetLimit(t *testing.T) {
	w := New(13, "2", 10)
	assert.Equal(t, 10, w.Offset())
	assert.Equal(t, 3, w.Limit())

	w = New(20, "2", 10)
	assert.Equal(t, 10, w.Limit())
}
