package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// errors the handlers map to flash messages

type ErrCode string

const (
	ErrInvalid     ErrCode = "INVALID"
	ErrPartial     ErrCode = "PARTIAL_FAILURE"
	ErrOrderAbsent ErrCode = "NOT_FOUND"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// ErrNoOrders is returned by WriteCSV when there is nothing to export.
var ErrNoOrders = errors.New("no orders to export")

// ValidationError maps form field names to user-facing messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid order: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Code() ErrCode { return ErrInvalid }

// CloneCreated identifies a clone that was written.
type CloneCreated struct {
	Index        int
	TrackingCode string
}

// CloneFailed identifies a clone whose write failed.
type CloneFailed struct {
	Index int
	Err   error
}

// PartialFailureError reports a batch where some clones were written and
// others were not. Written clones stay written.
type PartialFailureError struct {
	Created []CloneCreated
	Failed  []CloneFailed
}

func (e *PartialFailureError) Error() string {
	total := len(e.Created) + len(e.Failed)
	msg := fmt.Sprintf("%d of %d orders failed", len(e.Failed), total)
	if len(e.Failed) > 0 {
		msg += fmt.Sprintf(" (first: clone %d: %v)", e.Failed[0].Index, e.Failed[0].Err)
	}
	return msg
}

func (e *PartialFailureError) Code() ErrCode { return ErrPartial }

func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
