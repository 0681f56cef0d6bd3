package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-watch/internal/diff"
)

type fakeSender struct {
	sizes  []int
	failOn map[int]error
}

func (f *fakeSender) SendBatch(_ context.Context, msgs []Message) error {
	call := len(f.sizes)
	f.sizes = append(f.sizes, len(msgs))
	return f.failOn[call]
}

func messages(n int) []Message {
	out := make([]Message, n)
	for i := range out {
		out[i] = Message{To: fmt.Sprintf("user%d@example.com", i), Subject: "s"}
	}
	return out
}

func TestDispatchBatchesAndContinuesAfterFailure(t *testing.T) {
	sender := &fakeSender{failOn: map[int]error{1: errors.New("provider 500")}}
	res := NewDispatcher(sender, 50).Dispatch(context.Background(), messages(120))

	assert.Equal(t, []int{50, 50, 20}, sender.sizes)
	assert.Equal(t, 120, res.Attempted)
	assert.Equal(t, 70, res.Sent)
	assert.Equal(t, 1, res.FailedBatches)
	require.Len(t, res.Errors, 1)

	var bErr *BatchError
	require.True(t, errors.As(res.Errors[0], &bErr))
	assert.Equal(t, 1, bErr.Index)
	assert.Equal(t, 50, bErr.Size)
	assert.EqualError(t, errors.Unwrap(bErr), "provider 500")
}

func TestDispatchNothing(t *testing.T) {
	sender := &fakeSender{}
	res := NewDispatcher(sender, 0).Dispatch(context.Background(), nil)
	assert.Empty(t, sender.sizes)
	assert.Equal(t, Result{}, res)
}

func TestDispatchDefaultBatchSize(t *testing.T) {
	sender := &fakeSender{}
	NewDispatcher(sender, 0).Dispatch(context.Background(), messages(51))
	assert.Equal(t, []int{50, 1}, sender.sizes)
}

func TestRenderWatchIsDeterministic(t *testing.T) {
	r := NewRenderer("https://rentals.example.com/")
	n := WatchNotice{
		Email:            "tenant@example.com",
		Address:          "1550 N LAKE SHORE DR",
		Delta:            diff.Counts{Complaints: 1},
		Current:          diff.Counts{Violations: 3, Complaints: 2},
		UnsubscribeToken: "tok-1",
	}
	m1, err := r.Watch(n)
	require.NoError(t, err)
	m2, err := r.Watch(n)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)

	assert.Equal(t, "tenant@example.com", m1.To)
	assert.Equal(t, "New records at 1550 N LAKE SHORE DR", m1.Subject)
	assert.Contains(t, m1.HTML, "1 new 311 complaint (2 on file)")
	assert.NotContains(t, m1.HTML, "violation")
	assert.Contains(t, m1.Text, "View the records (https://rentals.example.com/address/1550-n-lake-shore-dr)")
	assert.Contains(t, m1.Text, "(https://rentals.example.com/unsubscribe?token=tok-1)")
}

func TestRenderLandlord(t *testing.T) {
	m, err := NewRenderer("https://rentals.example.com").Landlord(LandlordNotice{
		Email:      "owner@example.com",
		Address:    "2400 W DIVISION ST",
		BuildingID: 7,
		Delta:      diff.Counts{Violations: 3, Complaints: 2},
		Current:    diff.Counts{Violations: 10, Complaints: 4},
		Severity:   diff.SeverityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "[high] New activity at 2400 W DIVISION ST", m.Subject)
	assert.Contains(t, m.Text, "Severity: high")
	assert.Contains(t, m.Text, "3 new building violations (10 on file).")
	assert.Contains(t, m.Text, "/dashboard/buildings/7")
}

func TestPlainText(t *testing.T) {
	text, err := PlainText(`<html><body><h1>Hi   there</h1><p>See <a href="https://x.test/a">this</a>.</p><p></p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Hi there\nSee this. (https://x.test/a)", text)
}

type fakePoster struct {
	channel string
	calls   int
	err     error
}

func (f *fakePoster) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.channel = channelID
	f.calls++
	return channelID, "1700000000.000100", f.err
}

func TestSlackSummary(t *testing.T) {
	s := RunSummary{Job: "check-watches", RunID: "abc", Checked: 4, Notified: 2, Failed: 1, Dispatch: Result{Attempted: 2, Sent: 0, FailedBatches: 1}}
	text := s.Format()
	assert.Contains(t, text, "*check-watches* run `abc`")
	assert.Contains(t, text, "checked 4, notified 2, failed 1")
	assert.Contains(t, text, "emails sent 0/2")
	assert.Contains(t, text, "1 failed batches")

	poster := &fakePoster{}
	require.NoError(t, NewSlackNotifierWithClient(poster, "C123").PostSummary(context.Background(), s))
	assert.Equal(t, "C123", poster.channel)

	poster.err = errors.New("channel_not_found")
	assert.ErrorContains(t, NewSlackNotifierWithClient(poster, "C123").PostSummary(context.Background(), s), "channel_not_found")
}
