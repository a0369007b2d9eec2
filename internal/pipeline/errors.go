package pipeline

import (
	"context"
	"errors"

	"github.com/franckalain/ecoscan/internal/backend"
	"github.com/franckalain/ecoscan/internal/footprint"
	"github.com/franckalain/ecoscan/internal/upload"
)

// GenericFailure is shown when an error carries no usable message
const GenericFailure = "Error analyzing image. Please try again."

var (
	// ErrNoImage is returned by Analyze when nothing is selected
	ErrNoImage = &upload.ValidationError{Reason: "no_image", Message: "Please upload an image first."}
	// ErrBusy is returned when an action conflicts with a request still in flight
	ErrBusy = &upload.ValidationError{Reason: "busy", Message: "An analysis is already in progress."}
	// ErrClosed is returned after Close
	ErrClosed = errors.New("pipeline closed")
)

// failureMessage derives the message shown for a failed submission
func failureMessage(err error) string {
	var cerr *footprint.ConsistencyError
	if errors.As(err, &cerr) {
		return GenericFailure
	}
	var berr *backend.BackendError
	if errors.As(err, &berr) {
		if berr.Message != "" {
			return berr.Message
		}
		return GenericFailure
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The analysis timed out. Please try again."
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericFailure
}
