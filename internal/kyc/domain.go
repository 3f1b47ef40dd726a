// Package kyc is the moderation screen for tier-upgrade requests. Approvals
// here carry a note but no monetary amount.
package kyc

import (
	"encoding/json"
	"time"

	"github.com/opsdesk/opsdesk/internal/review"
)

// Status enumerates upstream KYC request statuses.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Record is one tier-upgrade request row. Documents arrive with the detail
// payload.
type Record struct {
	ID            string    `json:"id"`
	Status        Status    `json:"status"`
	RequestedTier int       `json:"requestedTier"`
	CurrentTier   int       `json:"currentTier"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	CreatedAt     time.Time `json:"createdAt"`
	Documents     []string  `json:"documents,omitempty"`
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

type apiRecord struct {
	ID            string `json:"id"`
	AltID         string `json:"_id"`
	Status        string `json:"status"`
	RequestedTier int    `json:"requestedTier"`
	CurrentTier   int    `json:"currentTier"`
	CreatedAt     string `json:"createdAt"`
	User          struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	UserName  string   `json:"userName"`
	UserEmail string   `json:"userEmail"`
	Documents []string `json:"documents"`
}

func decode(raw json.RawMessage) (Record, error) {
	var api apiRecord
	if err := json.Unmarshal(raw, &api); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:            choose(api.ID, api.AltID),
		Status:        Status(api.Status),
		RequestedTier: api.RequestedTier,
		CurrentTier:   api.CurrentTier,
		UserName:      choose(api.User.Name, api.UserName),
		UserEmail:     choose(api.User.Email, api.UserEmail),
		Documents:     api.Documents,
	}
	if api.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, api.CreatedAt); err == nil {
			rec.CreatedAt = ts
		}
	}
	return rec, nil
}

func choose(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
