// Package pagination splits an ordered collection into fixed-size, 1-based pages.
//
// Page numbers come straight from the query string: a missing or malformed value
// selects the first page, values below 1 clamp to the first page and values past
// the end clamp to the last page. An empty collection still has one (empty) page.
package pagination

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Window 某一页在有序集合中的位置
type Window struct {
	Number   int
	NumPages int
	Total    int64
	Size     int
}

// New 根据总数、原始 page 参数和每页大小计算窗口
func New(total int64, rawPage string, size int) Window {
	if size <= 0 {
		size = 1
	}
	if total < 0 {
		total = 0
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}
	number := ParseNumber(rawPage)
	if number > numPages {
		number = numPages
	}
	return Window{Number: number, NumPages: numPages, Total: total, Size: size}
}

// ParseNumber 解析 page 参数；非法值返回 1
func ParseNumber(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "last" {
		return int(^uint(0) >> 1)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (w Window) Offset() int { return (w.Number - 1) * w.Size }

// Limit 本页实际条数
func (w Window) Limit() int {
	remaining := w.Total - int64(w.Offset())
	if remaining <= 0 {
		return 0
	}
	if remaining < int64(w.Size) {
		return int(remaining)
	}
	return w.Size
}

// Scope 作为 gorm scope 使用：db.Scopes(w.Scope)
func (w Window) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(w.Offset()).Limit(w.Size)
}

// Page 一页数据及渲染翻页控件所需的元信息
type Page[T any] struct {
	Items    []T   `json:"items"`
	Number   int   `json:"number"`
	NumPages int   `json:"num_pages"`
	Total    int64 `json:"total"`
	PageSize int   `json:"page_size"`
}

// NewPage 用窗口和已取出的数据组装 Page
func NewPage[T any](w Window, items []T) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Number: w.Number, NumPages: w.NumPages, Total: w.Total, PageSize: w.Size}
}

func (p *Page[T]) Len() int { return len(p.Items) }

func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }

func (p *Page[T]) NextPageNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p *Page[T]) PreviousPageNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// PageRange 1..NumPages，模板里渲染页码
func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// StartIndex 本页第一条的 1-based 序号，空页为 0
func (p *Page[T]) StartIndex() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Number-1)*p.PageSize + 1
}
