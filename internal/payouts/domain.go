// Package payouts is the moderation screen for payout requests. The payout
// endpoint only supports server pagination, so this screen declares that
// strategy and forwards its status filter to the upstream query.
package payouts

import (
	"encoding/json"
	"time"

	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Status enumerates upstream payout statuses.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
)

// Record is one payout request row. Bank fields arrive with the detail
// payload.
type Record struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DisplayAmount string    `json:"displayAmount"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	CreatedAt     time.Time `json:"createdAt"`
	BankName      string    `json:"bankName,omitempty"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	AccountName   string    `json:"accountName,omitempty"`
}

// ReviewID implements review.Reviewable.
func (r Record) ReviewID() string { return r.ID }

// ReviewState reduces the domain status to the moderation tri-state.
func (r Record) ReviewState() review.State {
	switch r.Status {
	case StatusPending:
		return review.StatePending
	case StatusApproved:
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
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	User      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	UserName string `json:"userName"`
	Bank     struct {
		Name          string `json:"name"`
		AccountNumber string `json:"accountNumber"`
		AccountName   string `json:"accountName"`
	} `json:"bank"`
}

func decode(raw json.RawMessage) (Record, error) {
	var api apiRecord
	if err := json.Unmarshal(raw, &api); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:            pick(api.ID, api.AltID),
		Status:        Status(api.Status),
		Amount:        api.Amount,
		Currency:      pick(api.Currency, "NGN"),
		UserName:      pick(api.User.Name, api.UserName),
		UserEmail:     api.User.Email,
		BankName:      api.Bank.Name,
		AccountNumber: api.Bank.AccountNumber,
		AccountName:   api.Bank.AccountName,
	}
	if api.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, api.CreatedAt); err == nil {
			rec.CreatedAt = ts
		}
	}
	rec.DisplayAmount = shared.FormatAmount(rec.Amount, rec.Currency)
	return rec, nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
