package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teashop/backend/internal/platform/web"
)

// StockRange is an inclusive stock interval used by the admin stock filter.
// Unbounded ranges have no upper limit.
type StockRange struct {
	Min     int
	Max     int
	Bounded bool
}

var (
	OutOfStock = StockRange{Min: 0, Max: 0, Bounded: true}
	LowStock   = StockRange{Min: 1, Max: 9, Bounded: true}
	InStock    = StockRange{Min: 10}
)

// StockLevels are the named filter choices shown in the admin list.
var StockLevels = map[string]StockRange{
	"out_of_stock": OutOfStock,
	"low":          LowStock,
	"in_stock":     InStock,
}

// String encodes the range as "[min, max]" or "[min, +inf)".
func (r StockRange) String() string {
	if !r.Bounded {
		return fmt.Sprintf("[%d, +inf)", r.Min)
	}
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Contains reports whether stock falls inside the range.
func (r StockRange) Contains(stock int) bool {
	if stock < r.Min {
		return false
	}
	return !r.Bounded || stock <= r.Max
}

// ParseStockRange accepts a level name or the encoded form produced by String.
func ParseStockRange(s string) (StockRange, error) {
	s = strings.TrimSpace(s)
	if r, ok := StockLevels[s]; ok {
		return r, nil
	}
	bad := fmt.Errorf("invalid stock range %q: %w", s, web.ErrBadRequest)
	if len(s) < 2 || s[0] != '[' {
		return StockRange{}, bad
	}
	lo, hi, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return StockRange{}, bad
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || from < 0 {
		return StockRange{}, bad
	}
	hi = strings.TrimSpace(hi)
	switch s[len(s)-1] {
	case ')':
		if hi != "+inf" {
			return StockRange{}, bad
		}
		return StockRange{Min: from}, nil
	case ']':
		to, err := strconv.Atoi(hi)
		if err != nil || to < from {
			return StockRange{}, bad
		}
		return StockRange{Min: from, Max: to, Bounded: true}, nil
	}
	return StockRange{}, bad
}
