package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatAmountGroupsDigits(t *testing.T) {
	got := FormatAmount(5000, "NGN")
	require.True(t, strings.HasSuffix(got, " 5,000.00"), got)

	got = FormatAmount(1234567.89, "USD")
	require.True(t, strings.HasSuffix(got, " 1,234,567.89"), got)
}

func TestFormatAmountUnknownCodeFallsBack(t *testing.T) {
	require.Equal(t, "POINTS 250.00", FormatAmount(250, "POINTS"))
}
