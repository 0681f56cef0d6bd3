package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is the provider's per-call ceiling.
const DefaultBatchSize = 50

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// BatchSender delivers one batch of messages in a single provider call.
type BatchSender interface {
	SendBatch(ctx context.Context, msgs []Message) error
}

// BatchError is a failed batch. Batches are not retried.
type BatchError struct {
	Index int
	Size  int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d messages): %v", e.Index, e.Size, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Result summarizes one dispatch.
type Result struct {
	Attempted     int     `json:"attempted"`
	Sent          int     `json:"sent"`
	FailedBatches int     `json:"failed_batches"`
	Errors        []error `json:"-"`
}

type Dispatcher struct {
	sender    BatchSender
	batchSize int
	log       *logrus.Entry
}

func NewDispatcher(sender BatchSender, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Dispatcher{
		sender:    sender,
		batchSize: batchSize,
		log:       logrus.WithField("component", "notify"),
	}
}

// Dispatch sends msgs in fixed-size batches, one after another. A failed
// batch is logged and recorded; later batches are still sent.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []Message) Result {
	res := Result{Attempted: len(msgs)}
	for i, start := 0, 0; start < len(msgs); i, start = i+1, start+d.batchSize {
		end := min(start+d.batchSize, len(msgs))
		batch := msgs[start:end]

		if err := d.sender.SendBatch(ctx, batch); err != nil {
			bErr := &BatchError{Index: i, Size: len(batch), Err: err}
			d.log.WithError(err).WithFields(logrus.Fields{"batch": i, "size": len(batch)}).Error("batch send failed")
			res.FailedBatches++
			res.Errors = append(res.Errors, bErr)
			continue
		}
		res.Sent += len(batch)
	}
	if res.Attempted > 0 {
		d.log.WithFields(logrus.Fields{"attempted": res.Attempted, "sent": res.Sent, "failed_batches": res.FailedBatches}).Info("dispatch finished")
	}
	return res
}
