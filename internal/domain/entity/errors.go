package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCalldata is returned for calldata shorter than a selector or with an undecodable payload
	ErrMalformedCalldata = errors.New("malformed calldata")

	// ErrUnsupportedAbiType is returned when a matched function declares an input type the decoder does not handle
	ErrUnsupportedAbiType = errors.New("unsupported abi type")

	// ErrIncompleteFetch signals that pagination stopped at the page limit before the source ran out
	ErrIncompleteFetch = errors.New("incomplete fetch: page limit reached")

	// ErrMalformedOwner is returned for owner words that are not 32 bytes long
	ErrMalformedOwner = errors.New("malformed owner value")
)

// TransportError wraps failures reported by a boundary collaborator
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err unless it already is a TransportError
func NewTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// IncompleteFetchError carries the cursor at which pagination was stopped
type IncompleteFetchError struct {
	Pages      int
	LastCursor string
}

func (e *IncompleteFetchError) Error() string {
	return fmt.Sprintf("%s after %d pages (next cursor %q)", ErrIncompleteFetch.Error(), e.Pages, e.LastCursor)
}

func (e *IncompleteFetchError) Is(target error) bool {
	return target == ErrIncompleteFetch
}
