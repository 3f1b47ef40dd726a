package listing

import "math"

// windowThreshold is the page count up to which every button is rendered.
const windowThreshold = 7

// Paginate slices one page out of items. totalPages is never below 1, even
// for an empty collection.
func Paginate[T any](items []T, pageSize, page int) ([]T, int) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if page <= 0 {
		page = 1
	}
	totalPages := TotalPages(len(items), pageSize)
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil, totalPages
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}

// TotalPages computes ceil(total/pageSize) with a floor of one page.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = 10
	}
	pages := int(math.Ceil(float64(total) / float64(pageSize)))
	if pages < 1 {
		return 1
	}
	return pages
}

// PageButton is one navigation control: a numbered page or an ellipsis gap.
type PageButton struct {
	Page int  `json:"page,omitempty"`
	Gap  bool `json:"gap,omitempty"`
}

// PageButtons renders the bounded, ellipsis-compressed button row. Seven or
// fewer pages render in full; beyond that the row is
// 1 [..] current-2..current+2 [..] last, gaps appearing only when the window
// does not already touch the edge.
func PageButtons(current, total int) []PageButton {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	if total <= windowThreshold {
		buttons := make([]PageButton, 0, total)
		for p := 1; p <= total; p++ {
			buttons = append(buttons, PageButton{Page: p})
		}
		return buttons
	}

	buttons := []PageButton{{Page: 1}}
	if current > 4 {
		buttons = append(buttons, PageButton{Gap: true})
	}
	lo := current - 2
	if lo < 1 {
		lo = 1
	}
	hi := current + 2
	if hi > total {
		hi = total
	}
	for p := lo; p <= hi; p++ {
		if p == 1 || p == total {
			continue
		}
		buttons = append(buttons, PageButton{Page: p})
	}
	if current < total-3 {
		buttons = append(buttons, PageButton{Gap: true})
	}
	buttons = append(buttons, PageButton{Page: total})
	return buttons
}

// Pagination is the navigation render model for one page of results.
type Pagination struct {
	Page        int          `json:"page"`
	PageSize    int          `json:"pageSize"`
	TotalItems  int          `json:"totalItems"`
	TotalPages  int          `json:"totalPages"`
	Buttons     []PageButton `json:"buttons"`
	PrevEnabled bool         `json:"prevEnabled"`
	NextEnabled bool         `json:"nextEnabled"`
}

// NewPagination assembles the render model. Previous/Next are disabled
// exactly at the edges and never gated on loading state.
func NewPagination(page, pageSize, totalItems, totalPages int) Pagination {
	if totalPages < 1 {
		totalPages = TotalPages(totalItems, pageSize)
	}
	if page < 1 {
		page = 1
	}
	return Pagination{
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		Buttons:     PageButtons(page, totalPages),
		PrevEnabled: page > 1,
		NextEnabled: page < totalPages,
	}
}
