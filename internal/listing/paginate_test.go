package listing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buttonPages(buttons []PageButton) []int {
	out := make([]int, 0, len(buttons))
	for _, b := range buttons {
		if b.Gap {
			out = append(out, 0)
		} else {
			out = append(out, b.Page)
		}
	}
	return out
}

func TestPageButtonsRendersAllWhenShort(t *testing.T) {
	require.Equal(t, []int{1, 2, 3, 4, 5}, buttonPages(PageButtons(2, 5)))
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, buttonPages(PageButtons(7, 7)))
	require.Equal(t, []int{1}, buttonPages(PageButtons(1, 1)))
}

func TestPageButtonsCompressesLongRows(t *testing.T) {
	// Zero marks a gap.
	require.Equal(t, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}, buttonPages(PageButtons(5, 10)))
	require.Equal(t, []int{1, 2, 3, 4, 0, 10}, buttonPages(PageButtons(2, 10)))
	require.Equal(t, []int{1, 0, 6, 7, 8, 9, 10}, buttonPages(PageButtons(8, 10)))
	require.Equal(t, []int{1, 2, 3, 0, 50}, buttonPages(PageButtons(1, 50)))
	require.Equal(t, []int{1, 0, 48, 49, 50}, buttonPages(PageButtons(50, 50)))
}

func TestPageButtonsNeverDuplicatesEdges(t *testing.T) {
	for total := 8; total <= 30; total++ {
		for current := 1; current <= total; current++ {
			seen := map[int]bool{}
			for _, b := range PageButtons(current, total) {
				if b.Gap {
					continue
				}
				require.False(t, seen[b.Page], "page %d repeated at current=%d total=%d", b.Page, current, total)
				seen[b.Page] = true
			}
			require.True(t, seen[1])
			require.True(t, seen[total])
			require.True(t, seen[current])
		}
	}
}

func TestPageButtonsClampsOutOfRangeCurrent(t *testing.T) {
	require.Equal(t, buttonPages(PageButtons(10, 10)), buttonPages(PageButtons(99, 10)))
	require.Equal(t, buttonPages(PageButtons(1, 10)), buttonPages(PageButtons(0, 10)))
}

func TestPaginateSlicesWindow(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i + 1
	}

	rows, totalPages := Paginate(items, 10, 1)
	require.Equal(t, 3, totalPages)
	require.Len(t, rows, 10)
	require.Equal(t, 1, rows[0])
	require.Equal(t, 10, rows[9])

	rows, _ = Paginate(items, 10, 3)
	require.Len(t, rows, 3)
	require.Equal(t, 21, rows[0])

	rows, totalPages = Paginate(items, 10, 9)
	require.Empty(t, rows)
	require.Equal(t, 3, totalPages)
}

func TestTotalPagesFloorsAtOne(t *testing.T) {
	require.Equal(t, 1, TotalPages(0, 10))
	require.Equal(t, 1, TotalPages(10, 10))
	require.Equal(t, 2, TotalPages(11, 10))
	require.Equal(t, 3, TotalPages(23, 10))
}

func TestNewPaginationEdgeControls(t *testing.T) {
	p := NewPagination(1, 10, 23, 3)
	require.False(t, p.PrevEnabled)
	require.True(t, p.NextEnabled)

	p = NewPagination(3, 10, 23, 3)
	require.True(t, p.PrevEnabled)
	require.False(t, p.NextEnabled)

	// A one-page empty collection disables both directions.
	p = NewPagination(1, 10, 0, 1)
	require.False(t, p.PrevEnabled)
	require.False(t, p.NextEnabled)
}
