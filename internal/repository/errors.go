package repository

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store errors
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type InvalidArgumentError struct{ Message string }

func (e *InvalidArgumentError) Error() string { return e.Message }

type StoreUnavailableError struct {
	Message string
	Err     error
}

func (e *StoreUnavailableError) Error() string { return e.Message }

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// mapStoreErr folds Firestore gRPC failures into the store taxonomy so
// callers never see driver codes.
func mapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return &NotFoundError{Message: op + ": not found"}
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return &StoreUnavailableError{Message: op + ": store unavailable", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &StoreUnavailableError{Message: op + ": store unavailable", Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
