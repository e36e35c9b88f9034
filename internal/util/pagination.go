package util

import (
	"fmt"
	"math"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// ParseIntParam returns def for an empty value and an error for a non-integer one.
func ParseIntParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid integer", s)
	}
	return v, nil
}

// Calculate clamps page and size and returns the resulting window. ok is
// false when the window starts past any representable offset; such a page
// is always empty.
func Calculate(page, size int) (offset, limit int, ok bool) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page-1 > math.MaxInt/size {
		return 0, size, false
	}
	offset = (page - 1) * size
	return offset, size, true
}
