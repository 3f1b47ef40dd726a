package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payoutRec struct {
	id       string
	state    State
	amount   float64
	currency string
}

func (r payoutRec) ReviewID() string                { return r.id }
func (r payoutRec) ReviewState() State              { return r.state }
func (r payoutRec) ReviewAmount() (float64, string) { return r.amount, r.currency }

type kycRec struct {
	id    string
	state State
}

func (r kycRec) ReviewID() string   { return r.id }
func (r kycRec) ReviewState() State { return r.state }

type actionCall struct {
	id     string
	note   string
	reason string
	amount *float64
}

type stubActions struct {
	mu       sync.Mutex
	approves []actionCall
	rejects  []actionCall
	err      error
}

func (a *stubActions) Approve(ctx context.Context, id, note string, amount *float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.approves = append(a.approves, actionCall{id: id, note: note, amount: amount})
	return nil
}

func (a *stubActions) Reject(ctx context.Context, id, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.rejects = append(a.rejects, actionCall{id: id, reason: reason})
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) Info(ctx context.Context, message string) {}

type backendError struct{ message string }

func (e backendError) Error() string       { return e.message }
func (e backendError) UserMessage() string { return e.message }

func newTestWorkflow(t *testing.T, actions Actioner, notifier *recordingNotifier) *Workflow {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewConfirmationStore(client, time.Minute)
	return NewWorkflow("payouts", actions, store, nil, notifier, nil)
}

func TestStageRejectsResolvedRecord(t *testing.T) {
	w := newTestWorkflow(t, &stubActions{}, &recordingNotifier{})

	_, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StateResolvedPositive}, DecisionApprove)
	require.ErrorIs(t, err, ErrNotPending)
}

func TestStageApproveCarriesDefaultAmount(t *testing.T) {
	w := newTestWorkflow(t, &stubActions{}, &recordingNotifier{})

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 5000, currency: "NGN"}, DecisionApprove)
	require.NoError(t, err)
	require.NotEmpty(t, c.Token)
	require.NotNil(t, c.Amount)
	require.Equal(t, 5000.0, *c.Amount)
	require.Equal(t, "NGN", c.Currency)
}

func TestStageNonMonetaryApproveHasNoAmount(t *testing.T) {
	w := newTestWorkflow(t, &stubActions{}, &recordingNotifier{})

	c, err := w.Stage(context.Background(), kycRec{id: "k1", state: StatePending}, DecisionApprove)
	require.NoError(t, err)
	require.Nil(t, c.Amount)
}

func TestConfirmApproveWithEditedAmount(t *testing.T) {
	actions := &stubActions{}
	notifier := &recordingNotifier{}
	w := newTestWorkflow(t, actions, notifier)

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 5000, currency: "NGN"}, DecisionApprove)
	require.NoError(t, err)

	edited := 4500.0
	refetches := 0
	err = w.Confirm(context.Background(), ConfirmInput{
		Token:          c.Token,
		ActorID:        "op-1",
		ApprovedAmount: &edited,
	}, func(context.Context) error {
		refetches++
		return nil
	})
	require.NoError(t, err)

	require.Len(t, actions.approves, 1)
	require.Equal(t, "p1", actions.approves[0].id)
	require.NotNil(t, actions.approves[0].amount)
	require.Equal(t, 4500.0, *actions.approves[0].amount)
	require.Equal(t, 1, refetches)
	require.Equal(t, []string{"Request approved."}, notifier.successes)
	require.Empty(t, notifier.errors)
}

func TestConfirmApproveKeepsStagedAmountWhenUnedited(t *testing.T) {
	actions := &stubActions{}
	w := newTestWorkflow(t, actions, &recordingNotifier{})

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 5000}, DecisionApprove)
	require.NoError(t, err)

	require.NoError(t, w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, nil))
	require.Len(t, actions.approves, 1)
	require.Equal(t, 5000.0, *actions.approves[0].amount)
}

func TestConfirmRejectsNonPositiveAmount(t *testing.T) {
	actions := &stubActions{}
	w := newTestWorkflow(t, actions, &recordingNotifier{})

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 5000}, DecisionApprove)
	require.NoError(t, err)

	zero := 0.0
	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token, ApprovedAmount: &zero}, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.Empty(t, actions.approves)

	corrected := 4200.0
	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token, ApprovedAmount: &corrected}, nil)
	require.NoError(t, err)
	require.Len(t, actions.approves, 1)
}

func TestConfirmRejectRequiresReason(t *testing.T) {
	actions := &stubActions{}
	w := newTestWorkflow(t, actions, &recordingNotifier{})

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending}, DecisionReject)
	require.NoError(t, err)

	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, nil)
	require.ErrorIs(t, err, ErrReasonRequired)
	require.Empty(t, actions.rejects)

	// The staged confirmation survives the validation failure, so the
	// operator retries with the same token.
	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token, Reason: "mismatched account"}, nil)
	require.NoError(t, err)
	require.Len(t, actions.rejects, 1)
	require.Equal(t, "mismatched account", actions.rejects[0].reason)
}

func TestConfirmRejectPassesReason(t *testing.T) {
	actions := &stubActions{}
	notifier := &recordingNotifier{}
	w := newTestWorkflow(t, actions, notifier)

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending}, DecisionReject)
	require.NoError(t, err)

	refetches := 0
	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token, Reason: "document mismatch"}, func(context.Context) error {
		refetches++
		return nil
	})
	require.NoError(t, err)
	require.Len(t, actions.rejects, 1)
	require.Equal(t, "document mismatch", actions.rejects[0].reason)
	require.Equal(t, 1, refetches)
	require.Equal(t, []string{"Request rejected."}, notifier.successes)
}

func TestConfirmTokenCannotBeReplayed(t *testing.T) {
	actions := &stubActions{}
	w := newTestWorkflow(t, actions, &recordingNotifier{})

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 100}, DecisionApprove)
	require.NoError(t, err)

	require.NoError(t, w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, nil))
	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, nil)
	require.ErrorIs(t, err, ErrConfirmationNotFound)
	require.Len(t, actions.approves, 1)
}

func TestConfirmUnknownTokenFails(t *testing.T) {
	w := newTestWorkflow(t, &stubActions{}, &recordingNotifier{})

	err := w.Confirm(context.Background(), ConfirmInput{Token: "nope"}, nil)
	require.ErrorIs(t, err, ErrConfirmationNotFound)
}

func TestDismissedConfirmationCannotBeConfirmed(t *testing.T) {
	actions := &stubActions{}
	w := newTestWorkflow(t, actions, &recordingNotifier{})

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 100}, DecisionApprove)
	require.NoError(t, err)
	require.NoError(t, w.Dismiss(context.Background(), c.Token))

	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, nil)
	require.ErrorIs(t, err, ErrConfirmationNotFound)
	require.Empty(t, actions.approves)
}

func TestConfirmFailureSurfacesBackendMessage(t *testing.T) {
	actions := &stubActions{err: backendError{message: "payout already disbursed"}}
	notifier := &recordingNotifier{}
	w := newTestWorkflow(t, actions, notifier)

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 100}, DecisionApprove)
	require.NoError(t, err)

	refetches := 0
	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, func(context.Context) error {
		refetches++
		return nil
	})
	require.Error(t, err)
	require.Equal(t, []string{"payout already disbursed"}, notifier.errors)
	require.Empty(t, notifier.successes)
	require.Zero(t, refetches, "a failed action must not refresh the list")
}

func TestConfirmFailureWithoutBackendMessageUsesGenericText(t *testing.T) {
	actions := &stubActions{err: errors.New("connection reset")}
	notifier := &recordingNotifier{}
	w := newTestWorkflow(t, actions, notifier)

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 100}, DecisionApprove)
	require.NoError(t, err)

	require.Error(t, w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, nil))
	require.Equal(t, []string{genericActionFailure}, notifier.errors)
}

func TestConfirmRefetchFailureStillSucceeds(t *testing.T) {
	actions := &stubActions{}
	notifier := &recordingNotifier{}
	w := newTestWorkflow(t, actions, notifier)

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 100}, DecisionApprove)
	require.NoError(t, err)

	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, func(context.Context) error {
		return errors.New("upstream flake")
	})
	require.NoError(t, err)
	require.Len(t, actions.approves, 1)
	require.Equal(t, []string{"Request approved."}, notifier.successes)
	require.Equal(t, []string{"The decision was saved but the list could not be refreshed."}, notifier.errors)
}

func TestConfirmationExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewConfirmationStore(client, time.Minute)
	w := NewWorkflow("payouts", &stubActions{}, store, nil, &recordingNotifier{}, nil)

	c, err := w.Stage(context.Background(), payoutRec{id: "p1", state: StatePending, amount: 100}, DecisionApprove)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	err = w.Confirm(context.Background(), ConfirmInput{Token: c.Token}, nil)
	require.ErrorIs(t, err, ErrConfirmationNotFound)
}
