package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReviewPendingScan counts records awaiting moderation per screen.
	TaskReviewPendingScan = "review:pending_scan"
	// TaskCollectionWarm pre-fetches moderated collections into the cache.
	TaskCollectionWarm = "collection:warm"
	// TaskDecisionCleanup prunes decision log entries past retention.
	TaskDecisionCleanup = "decisions:cleanup"
)

// PendingScanPayload selects which screens a scan run covers. An empty list
// means every moderated screen.
type PendingScanPayload struct {
	Screens []string `json:"screens,omitempty"`
}

// NewPendingScanTask constructs an Asynq task for the pending backlog scan.
func NewPendingScanTask(screens ...string) (*asynq.Task, error) {
	data, err := json.Marshal(PendingScanPayload{Screens: screens})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReviewPendingScan, data), nil
}

// CollectionWarmPayload selects which screens a warm run covers. An empty
// list means every client-paginated screen.
type CollectionWarmPayload struct {
	Screens []string `json:"screens,omitempty"`
}

// NewCollectionWarmTask constructs an Asynq task for the collection warm run.
func NewCollectionWarmTask(screens ...string) (*asynq.Task, error) {
	data, err := json.Marshal(CollectionWarmPayload{Screens: screens})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCollectionWarm, data), nil
}

// DecisionCleanupPayload optionally overrides the retention window. Zero
// means use the worker's configured retention.
type DecisionCleanupPayload struct {
	RetentionHours int `json:"retentionHours,omitempty"`
}

// NewDecisionCleanupTask constructs an Asynq task for the retention run.
func NewDecisionCleanupTask() (*asynq.Task, error) {
	data, err := json.Marshal(DecisionCleanupPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDecisionCleanup, data), nil
}

// Target binds a screen name to its upstream resource path.
type Target struct {
	Screen   string
	Resource string
}

// ModeratedTargets lists every screen with a review workflow.
func ModeratedTargets() []Target {
	return []Target{
		{Screen: "giftcards", Resource: "admin/giftcards"},
		{Screen: "trades", Resource: "admin/trades"},
		{Screen: "payouts", Resource: "admin/payouts"},
		{Screen: "kyc", Resource: "admin/kyc/upgrades"},
		{Screen: "bonus", Resource: "admin/bonuses"},
	}
}

// WarmTargets lists the client-paginated screens whose full collection is
// worth caching ahead of the first operator visit.
func WarmTargets() []Target {
	return []Target{
		{Screen: "giftcards", Resource: "admin/giftcards"},
		{Screen: "trades", Resource: "admin/trades"},
		{Screen: "kyc", Resource: "admin/kyc/upgrades"},
		{Screen: "bonus", Resource: "admin/bonuses"},
	}
}
