package dispatch

import (
	"fmt"

	"github.com/luminar-ai/luminar-go/types"
)

// BatchFailure records one batch that could not be delivered, with the
// IDs of its events and the terminal error.
type BatchFailure struct {
	EventIDs []string
	Err      error
}

// DeliveryReport aggregates the outcome of one flush cycle. It is
// returned as the error of Flush/Shutdown when at least one batch failed,
// so a single bad batch never hides the delivery of the others.
type DeliveryReport struct {
	Delivered int
	Failed    []BatchFailure
}

// Error implements the error interface.
func (r *DeliveryReport) Error() string {
	return fmt.Sprintf("[%s] %d events undelivered in %d batches (%d delivered)",
		types.ErrDeliveryFailed, r.FailedEvents(), len(r.Failed), r.Delivered)
}

// Unwrap exposes the per-batch errors for errors.Is/As inspection.
func (r *DeliveryReport) Unwrap() []error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f.Err
	}
	return errs
}

// FailedEvents returns the total number of undelivered events.
func (r *DeliveryReport) FailedEvents() int {
	n := 0
	for _, f := range r.Failed {
		n += len(f.EventIDs)
	}
	return n
}
