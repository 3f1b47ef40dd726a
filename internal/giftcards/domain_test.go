package giftcards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/review"
)

func TestDecodeModernShape(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "gc-1",
		"status": "pending",
		"type": "sell",
		"cardName": "Amazon",
		"amount": 25000,
		"currency": "NGN",
		"createdAt": "2026-07-14T09:30:00Z",
		"user": {"name": "Amaka Obi", "email": "amaka@example.com"}
	}`)

	rec, err := decode(raw)
	require.NoError(t, err)
	require.Equal(t, "gc-1", rec.ID)
	require.Equal(t, StatusPending, rec.Status)
	require.Equal(t, "sell", rec.Kind)
	require.Equal(t, "Amazon", rec.CardName)
	require.Equal(t, "Amaka Obi", rec.UserName)
	require.Equal(t, "amaka@example.com", rec.UserEmail)
	require.Equal(t, 2026, rec.CreatedAt.Year())
	require.NotEmpty(t, rec.DisplayAmount)
}

func TestDecodeLegacyShape(t *testing.T) {
	raw := json.RawMessage(`{
		"_id": "legacy-9",
		"status": "approved",
		"card": "Steam",
		"amount": 100,
		"userName": "Bola A",
		"userEmail": "bola@example.com"
	}`)

	rec, err := decode(raw)
	require.NoError(t, err)
	require.Equal(t, "legacy-9", rec.ID)
	require.Equal(t, "Steam", rec.CardName)
	require.Equal(t, "NGN", rec.Currency, "missing currency defaults")
	require.Equal(t, "Bola A", rec.UserName)
}

func TestReviewStateMapping(t *testing.T) {
	require.Equal(t, review.StatePending, Record{Status: StatusPending}.ReviewState())
	require.Equal(t, review.StateResolvedPositive, Record{Status: StatusApproved}.ReviewState())
	require.Equal(t, review.StateResolvedNegative, Record{Status: StatusRejected}.ReviewState())
	require.Equal(t, review.StateResolvedNegative, Record{Status: "failed"}.ReviewState())
}

func TestReviewAmountExposesEditableDefault(t *testing.T) {
	amount, code := Record{Amount: 25000, Currency: "NGN"}.ReviewAmount()
	require.Equal(t, 25000.0, amount)
	require.Equal(t, "NGN", code)
}
