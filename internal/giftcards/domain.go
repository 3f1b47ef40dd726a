// Package giftcards is the moderation screen for gift-card sell and buy
// requests awaiting review.
package giftcards

import (
	"encoding/json"
	"time"

	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Status enumerates upstream gift-card request statuses.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Record is one gift-card request row. Proof and Comment arrive only on the
// enriched detail payload.
type Record struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	Kind          string    `json:"kind"`
	CardName      string    `json:"cardName"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DisplayAmount string    `json:"displayAmount"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	CreatedAt     time.Time `json:"createdAt"`
	Proof         []string  `json:"proof,omitempty"`
	Comment       string    `json:"comment,omitempty"`
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

// ReviewAmount implements review.Monetary: approvals may edit the payout.
func (r Record) ReviewAmount() (float64, string) {
	return r.Amount, r.Currency
}

type apiRecord struct {
	ID        string  `json:"id"`
	AltID     string  `json:"_id"`
	Status    string  `json:"status"`
	Kind      string  `json:"type"`
	CardName  string  `json:"cardName"`
	Card      string  `json:"card"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
	User      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	UserName  string   `json:"userName"`
	UserEmail string   `json:"userEmail"`
	Proof     []string `json:"proof"`
	Comment   string   `json:"comment"`
}

func decode(raw json.RawMessage) (Record, error) {
	var api apiRecord
	if err := json.Unmarshal(raw, &api); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:        coalesce(api.ID, api.AltID),
		Status:    Status(api.Status),
		Kind:      api.Kind,
		CardName:  coalesce(api.CardName, api.Card),
		Amount:    api.Amount,
		Currency:  coalesce(api.Currency, "NGN"),
		UserName:  coalesce(api.User.Name, api.UserName),
		UserEmail: coalesce(api.User.Email, api.UserEmail),
		Proof:     api.Proof,
		Comment:   api.Comment,
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
