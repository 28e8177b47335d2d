package confirm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	registerOK bool
	deliverOK  bool
	trials     [][]string
}

func (f *fakeNotifier) TryRegister(string) bool { return f.registerOK }

func (f *fakeNotifier) Deliver(endpoints []string, _, _ string) bool {
	f.trials = append(f.trials, endpoints)
	return f.deliverOK
}

type fakeAppender struct {
	appended map[string][]string
}

func newFakeAppender() *fakeAppender {
	return &fakeAppender{appended: make(map[string][]string)}
}

func (f *fakeAppender) AddEndpoints(_ context.Context, userID string, endpoints ...string) {
	for _, e := range endpoints {
		seen := false
		for _, have := range f.appended[userID] {
			if have == e {
				seen = true
				break
			}
		}
		if !seen {
			f.appended[userID] = append(f.appended[userID], e)
		}
	}
}

func newTestFlow(n *fakeNotifier) (*Flow, *fakeAppender) {
	ap := newFakeAppender()
	return New(n, ap, zap.NewNop()), ap
}

func TestPropose_InvalidEndpoint(t *testing.T) {
	f, _ := newTestFlow(&fakeNotifier{registerOK: false})

	err := f.Propose("u1", "garbage")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	_, pending := f.Pending("u1")
	assert.False(t, pending)
}

func TestPropose_TrialDeliveryFailureBlocksRegistration(t *testing.T) {
	n := &fakeNotifier{registerOK: true, deliverOK: false}
	f, ap := newTestFlow(n)

	err := f.Propose("u1", "https://hook.example")
	assert.ErrorIs(t, err, ErrTrialDeliveryFailed)
	_, pending := f.Pending("u1")
	assert.False(t, pending)
	assert.Empty(t, ap.appended, "rejected candidate is never stored")
}

func TestPropose_TrialGoesToCandidateOnly(t *testing.T) {
	n := &fakeNotifier{registerOK: true, deliverOK: true}
	f, _ := newTestFlow(n)

	require.NoError(t, f.Propose("u1", "https://hook.example"))
	assert.Equal(t, [][]string{{"https://hook.example"}}, n.trials)

	got, pending := f.Pending("u1")
	assert.True(t, pending)
	assert.Equal(t, "https://hook.example", got)
}

func TestPropose_OverwritesPrevious(t *testing.T) {
	f, _ := newTestFlow(&fakeNotifier{registerOK: true, deliverOK: true})

	require.NoError(t, f.Propose("u1", "https://first.example"))
	require.NoError(t, f.Propose("u1", "https://second.example"))

	got, _ := f.Pending("u1")
	assert.Equal(t, "https://second.example", got)
}

func TestConfirm_AddsEndpointAndRelay(t *testing.T) {
	ctx := context.Background()
	f, ap := newTestFlow(&fakeNotifier{registerOK: true, deliverOK: true})

	require.NoError(t, f.Propose("u1", "https://hook.example"))

	endpoint, err := f.Confirm(ctx, "u1", "tgram://token/42")
	require.NoError(t, err)
	assert.Equal(t, "https://hook.example", endpoint)
	assert.Equal(t, []string{"https://hook.example", "tgram://token/42"}, ap.appended["u1"])

	_, pending := f.Pending("u1")
	assert.False(t, pending)

	// Confirming again with nothing pending is a reported no-op.
	_, err = f.Confirm(ctx, "u1", "tgram://token/42")
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestConfirm_RelayDeduplicated(t *testing.T) {
	ctx := context.Background()
	f, ap := newTestFlow(&fakeNotifier{registerOK: true, deliverOK: true})

	// Candidate IS the relay channel; it must appear once.
	require.NoError(t, f.Propose("u1", "tgram://token/42"))
	_, err := f.Confirm(ctx, "u1", "tgram://token/42")
	require.NoError(t, err)
	assert.Equal(t, []string{"tgram://token/42"}, ap.appended["u1"])
}

func TestReject_DiscardsWithoutStoring(t *testing.T) {
	f, ap := newTestFlow(&fakeNotifier{registerOK: true, deliverOK: true})

	require.NoError(t, f.Propose("u1", "https://hook.example"))

	endpoint, err := f.Reject("u1")
	require.NoError(t, err)
	assert.Equal(t, "https://hook.example", endpoint)
	assert.Empty(t, ap.appended)

	_, pending := f.Pending("u1")
	assert.False(t, pending)

	_, err = f.Reject("u1")
	assert.ErrorIs(t, err, ErrNoPending)
}
