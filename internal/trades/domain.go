// Package trades is the moderation screen for crypto trade submissions.
package trades

import (
	"encoding/json"
	"time"

	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Status enumerates upstream trade statuses.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one trade submission row. TxHash and WalletAddress arrive only
// with the enriched detail payload.
type Record struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	Coin          string    `json:"coin"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DisplayAmount string    `json:"displayAmount"`
	Rate          float64   `json:"rate"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	CreatedAt     time.Time `json:"createdAt"`
	TxHash        string    `json:"txHash,omitempty"`
	WalletAddress string    `json:"walletAddress,omitempty"`
}

// ReviewID implements review.Reviewable.
func (r Record) ReviewID() string { return r.ID }

// ReviewState reduces the domain status to the moderation tri-state.
func (r Record) ReviewState() review.State {
	switch r.Status {
	case StatusPending:
		return review.StatePending
	case StatusCompleted:
		return review.StateResolvedPositive
	default:
		return review.StateResolvedNegative
	}
}

// ReviewAmount implements review.Monetary.
func (r Record) ReviewAmount() (float64, string) {
	return r.Amount, r.Currency
}

type apiRecord struct {
	ID        string  `json:"id"`
	AltID     string  `json:"_id"`
	Status    string  `json:"status"`
	Coin      string  `json:"coin"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Rate      float64 `json:"rate"`
	CreatedAt string  `json:"createdAt"`
	User      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	TxHash    string `json:"txHash"`
	Wallet    string `json:"walletAddress"`
}

func decode(raw json.RawMessage) (Record, error) {
	var api apiRecord
	if err := json.Unmarshal(raw, &api); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:            coalesce(api.ID, api.AltID),
		Status:        Status(api.Status),
		Coin:          api.Coin,
		Amount:        api.Amount,
		Currency:      coalesce(api.Currency, "NGN"),
		Rate:          api.Rate,
		UserName:      coalesce(api.User.Name, api.UserName),
		UserEmail:     coalesce(api.User.Email, api.UserEmail),
		TxHash:        api.TxHash,
		WalletAddress: api.Wallet,
	}
	if api.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, api.CreatedAt); err == nil {
			rec.CreatedAt = ts
		}
	}
	rec.DisplayAmount = shared.FormatAmount(rec.Amount, rec.Currency)
	return rec, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
