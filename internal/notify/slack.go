package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// RunSummary is what the ops channel hears after each job run.
type RunSummary struct {
	Job      string
	RunID    string
	Checked  int
	Notified int
	Failed   int
	Dispatch Result
	Duration time.Duration
}

// Format renders the summary as Slack mrkdwn.
func (s RunSummary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* run `%s` finished in %s\n", s.Job, s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "checked %d, notified %d, failed %d\n", s.Checked, s.Notified, s.Failed)
	fmt.Fprintf(&b, "emails sent %d/%d", s.Dispatch.Sent, s.Dispatch.Attempted)
	if s.Dispatch.FailedBatches > 0 {
		fmt.Fprintf(&b, " (:warning: %d failed batches)", s.Dispatch.FailedBatches)
	}
	return b.String()
}

// SlackPoster is the one call SlackNotifier needs from slack-go.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type SlackNotifier struct {
	client  SlackPoster
	channel string
}

func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{client: slack.New(token), channel: channel}
}

// NewSlackNotifierWithClient is used by tests to swap in a fake poster.
func NewSlackNotifierWithClient(client SlackPoster, channel string) *SlackNotifier {
	return &SlackNotifier{client: client, channel: channel}
}

func (n *SlackNotifier) PostSummary(ctx context.Context, s RunSummary) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(s.Format(), false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}
