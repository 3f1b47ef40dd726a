// Package history serves the read-only transaction log screens: airtime,
// data and bill payments. No moderation happens here; the screens are pure
// list browsers with the detail fallback.
package history

import (
	"encoding/json"
	"time"

	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Transaction is one history row. Reference and Provider arrive with the
// detail payload.
type Transaction struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DisplayAmount string    `json:"displayAmount"`
	UserName      string    `json:"userName"`
	Phone         string    `json:"phone"`
	CreatedAt     time.Time `json:"createdAt"`
	Reference     string    `json:"reference,omitempty"`
	Provider      string    `json:"provider,omitempty"`
}

// ReviewID implements review.Reviewable for the generic screen handler.
func (t Transaction) ReviewID() string { return t.ID }

// ReviewState maps settled transaction statuses for badge rendering; these
// screens offer no moderation affordances regardless.
func (t Transaction) ReviewState() review.State {
	switch t.Status {
	case "pending", "processing":
		return review.StatePending
	case "success", "completed":
		return review.StateResolvedPositive
	default:
		return review.StateResolvedNegative
	}
}

type apiTransaction struct {
	ID        string  `json:"id"`
	AltID     string  `json:"_id"`
	Kind      string  `json:"type"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	User      struct {
		Name string `json:"name"`
	} `json:"user"`
	UserName  string `json:"userName"`
	Phone     string `json:"phone"`
	Reference string `json:"reference"`
	Provider  string `json:"provider"`
}

func decode(raw json.RawMessage) (Transaction, error) {
	var api apiTransaction
	if err := json.Unmarshal(raw, &api); err != nil {
		return Transaction{}, err
	}
	tx := Transaction{
		ID:        coalesce(api.ID, api.AltID),
		Kind:      api.Kind,
		Status:    api.Status,
		Amount:    api.Amount,
		Currency:  coalesce(api.Currency, "NGN"),
		UserName:  coalesce(api.User.Name, api.UserName),
		Phone:     api.Phone,
		Reference: api.Reference,
		Provider:  api.Provider,
	}
	if api.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, api.CreatedAt); err == nil {
			tx.CreatedAt = ts
		}
	}
	tx.DisplayAmount = shared.FormatAmount(tx.Amount, tx.Currency)
	return tx, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
