// Package pagination slices ordered result sets into fixed-size pages.
package pagination

import (
	"strconv"
	"strings"
)

// Page is one slice of an ordered feed plus navigation metadata.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Window is the offset/limit pair for fetching one page from the database.
type Window struct {
	Offset int
	Limit  int
}

// ParsePage reads a 1-based page number. Empty or non-numeric input is page 1.
// The result is not clamped; see Clamp.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// NumPages is the page count for total items at size per page. An empty set
// still has one (empty) page.
func NumPages(total int64, size int) int {
	if size < 1 {
		size = 1
	}
	if total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Clamp moves number into [1, NumPages(total, size)].
func Clamp(number int, total int64, size int) int {
	last := NumPages(total, size)
	switch {
	case number < 1:
		return 1
	case number > last:
		return last
	}
	return number
}

// WindowFor returns the offset/limit of an already clamped page.
func WindowFor(number, size int) Window {
	if size < 1 {
		size = 1
	}
	if number < 1 {
		number = 1
	}
	return Window{Offset: (number - 1) * size, Limit: size}
}

// Resolve turns a raw page parameter into a clamped page number and its window.
func Resolve(raw string, total int64, size int) (int, Window) {
	number := Clamp(ParsePage(raw), total, size)
	return number, WindowFor(number, size)
}

// New assembles a Page from already-fetched items.
func New[T any](items []T, number, size int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	numPages := NumPages(total, size)
	return Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    numPages,
		PerPage:     size,
		Total:       total,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}

// Paginate slices an in-memory ordered sequence.
func Paginate[T any](items []T, size int, raw string) Page[T] {
	if size < 1 {
		size = 1
	}
	total := int64(len(items))
	number, w := Resolve(raw, total, size)

	start := min(w.Offset, len(items))
	end := min(start+w.Limit, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return New(out, number, size, total)
}

// Map converts the items of a page while keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = fn(item)
	}
	return Page[U]{
		Items:       items,
		Number:      p.Number,
		NumPages:    p.NumPages,
		PerPage:     p.PerPage,
		Total:       p.Total,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}
