package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers batches through the Resend batch endpoint.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) SendBatch(ctx context.Context, msgs []Message) error {
	reqs := make([]*resend.SendEmailRequest, len(msgs))
	for i, m := range msgs {
		reqs[i] = &resend.SendEmailRequest{
			From:    s.from,
			To:      []string{m.To},
			Subject: m.Subject,
			Html:    m.HTML,
			Text:    m.Text,
		}
	}
	if _, err := s.client.Batch.SendWithContext(ctx, reqs); err != nil {
		return fmt.Errorf("resend batch: %w", err)
	}
	return nil
}
