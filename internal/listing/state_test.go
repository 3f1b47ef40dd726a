package listing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyFilterResetsToFirstPage(t *testing.T) {
	s := NewState(10).ReceiveTotal(50).SetPage(4)
	require.Equal(t, 4, s.Page)

	s = s.ApplyFilter("status", "pending")
	require.Equal(t, 1, s.Page)
	require.Equal(t, "pending", s.Active("status"))
}

func TestApplyFilterEmptyValueClearsKey(t *testing.T) {
	s := NewState(10).ApplyFilter("status", "pending").ApplyFilter("status", "")
	require.Empty(t, s.Active("status"))
	require.Empty(t, s.Filters)
}

func TestApplyFilterDoesNotMutateReceiver(t *testing.T) {
	s := NewState(10).ApplyFilter("status", "pending")
	_ = s.ApplyFilter("status", "approved")
	require.Equal(t, "pending", s.Active("status"))
}

func TestClearFiltersDropsEverything(t *testing.T) {
	s := NewState(10).
		ApplyFilter("status", "pending").
		ApplyFilter("q", "amaka").
		ReceiveTotal(30).
		SetPage(3)

	s = s.ClearFilters()
	require.Empty(t, s.Filters)
	require.Equal(t, 1, s.Page)
}

func TestSetPageClampsIntoRange(t *testing.T) {
	s := NewState(10).ReceiveTotal(23)
	require.Equal(t, 3, s.TotalPages)

	require.Equal(t, 3, s.SetPage(9).Page)
	require.Equal(t, 1, s.SetPage(0).Page)
	require.Equal(t, 2, s.SetPage(2).Page)
}

func TestReceiveTotalResetsPageWhenCollectionShrinks(t *testing.T) {
	s := NewState(10).ReceiveTotal(50).SetPage(5)

	// Shrinking below the current page snaps back to page 1, not to the
	// nearest valid page.
	s = s.ReceiveTotal(12)
	require.Equal(t, 2, s.TotalPages)
	require.Equal(t, 1, s.Page)
}

func TestReceiveTotalEmptyCollection(t *testing.T) {
	s := NewState(10).ReceiveTotal(0)
	require.Equal(t, 1, s.TotalPages)
	require.Equal(t, 1, s.Page)
	require.Equal(t, 0, s.TotalItems)
}

func TestReceiveServerTotalsComputesMissingPages(t *testing.T) {
	s := NewState(10).ReceiveServerTotals(45, 0)
	require.Equal(t, 5, s.TotalPages)
	require.Equal(t, 45, s.TotalItems)

	s = NewState(10).ReceiveServerTotals(45, 5).SetPage(5).ReceiveServerTotals(8, 1)
	require.Equal(t, 1, s.Page)
}
