package listing

// State is the filter/page state container one screen instance owns.
// Transitions are pure: each returns the next state, so the clamping rules
// live here instead of being scattered across handlers.
type State struct {
	Filters    map[string]string
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// NewState constructs the mount-time state.
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = 10
	}
	return State{
		Filters:    map[string]string{},
		Page:       1,
		PageSize:   pageSize,
		TotalItems: 0,
		TotalPages: 1,
	}
}

// ApplyFilter sets one filter value (empty value clears that filter) and
// returns to page 1: a changed predicate invalidates the current window.
func (s State) ApplyFilter(key, value string) State {
	next := s.cloneFilters()
	if value == "" {
		delete(next.Filters, key)
	} else {
		next.Filters[key] = value
	}
	next.Page = 1
	return next
}

// ClearFilters drops every active filter and resets to page 1.
func (s State) ClearFilters() State {
	next := s
	next.Filters = map[string]string{}
	next.Page = 1
	return next
}

// SetPage moves to a page, clamped into [1, TotalPages].
func (s State) SetPage(page int) State {
	next := s
	if page < 1 {
		page = 1
	}
	if page > next.TotalPages {
		page = next.TotalPages
	}
	next.Page = page
	return next
}

// ReceiveTotal records the (filtered) collection size and recomputes
// TotalPages. When the collection shrinks below the current page the state
// resets to page 1 rather than sitting on an out-of-range empty page.
func (s State) ReceiveTotal(totalItems int) State {
	next := s
	if totalItems < 0 {
		totalItems = 0
	}
	next.TotalItems = totalItems
	next.TotalPages = TotalPages(totalItems, next.PageSize)
	if next.Page > next.TotalPages {
		next.Page = 1
	}
	return next
}

// ReceiveServerTotals records totals reported by the upstream for
// server-paginated screens. A missing totalPages is computed from the count.
func (s State) ReceiveServerTotals(totalItems, totalPages int) State {
	next := s
	if totalItems < 0 {
		totalItems = 0
	}
	next.TotalItems = totalItems
	if totalPages < 1 {
		totalPages = TotalPages(totalItems, next.PageSize)
	}
	next.TotalPages = totalPages
	if next.Page > next.TotalPages {
		next.Page = 1
	}
	return next
}

// Active returns the filter value for a key, empty when unset.
func (s State) Active(key string) string {
	return s.Filters[key]
}

func (s State) cloneFilters() State {
	next := s
	next.Filters = make(map[string]string, len(s.Filters)+1)
	for k, v := range s.Filters {
		next.Filters[k] = v
	}
	return next
}
