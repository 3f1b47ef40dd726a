package review

import (
	"context"
	"net/url"

	"github.com/opsdesk/opsdesk/internal/upstream"
)

// UpstreamActions is the Actioner every screen uses in production: it posts
// the record action to the screen's upstream resource.
type UpstreamActions struct {
	Client   *upstream.Client
	Resource string
}

// Approve posts the approval, carrying the optional note and edited amount.
func (a UpstreamActions) Approve(ctx context.Context, id, note string, amount *float64) error {
	body := map[string]any{}
	if note != "" {
		body["note"] = note
	}
	if amount != nil {
		body["approvedAmount"] = *amount
	}
	return a.Client.Post(ctx, a.Resource+"/"+url.PathEscape(id)+"/approve", body, nil)
}

// Reject posts the rejection with its mandatory reason.
func (a UpstreamActions) Reject(ctx context.Context, id, reason string) error {
	body := map[string]any{"reason": reason}
	return a.Client.Post(ctx, a.Resource+"/"+url.PathEscape(id)+"/reject", body, nil)
}
