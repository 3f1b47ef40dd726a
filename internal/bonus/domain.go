// Package bonus is the moderation screen for bonus activation requests.
package bonus

import (
	"encoding/json"
	"time"

	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Status enumerates upstream bonus request statuses.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusDeclined Status = "declined"
)

// Record is one bonus activation request row.
type Record struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	BonusType     string    `json:"bonusType"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DisplayAmount string    `json:"displayAmount"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReviewID implements review.Reviewable.
func (r Record) ReviewID() string { return r.ID }

// ReviewState reduces the domain status to the moderation tri-state.
func (r Record) ReviewState() review.State {
	switch r.Status {
	case StatusPending:
		return review.StatePending
	case StatusActive:
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
	BonusType string  `json:"bonusType"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	User      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	UserName string `json:"userName"`
}

func decode(raw json.RawMessage) (Record, error) {
	var api apiRecord
	if err := json.Unmarshal(raw, &api); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:        first(api.ID, api.AltID),
		Status:    Status(api.Status),
		BonusType: api.BonusType,
		Amount:    api.Amount,
		Currency:  first(api.Currency, "NGN"),
		UserName:  first(api.User.Name, api.UserName),
		UserEmail: api.User.Email,
	}
	if api.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, api.CreatedAt); err == nil {
			rec.CreatedAt = ts
		}
	}
	rec.DisplayAmount = shared.FormatAmount(rec.Amount, rec.Currency)
	return rec, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
