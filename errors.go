package dngopcodes

import (
	"errors"
	"fmt"

	"github.com/vearutop/dngopcodes/internal/bigendian"
)

var (
	// ErrTruncatedInput means the buffer is shorter than the structure it declares.
	ErrTruncatedInput = bigendian.ErrTruncated
	// ErrMalformedOpcode means a payload is inconsistent with its kind's fixed layout.
	ErrMalformedOpcode = errors.New("malformed opcode")
	// ErrUnsupportedFeature means an opcode uses a feature the engine does not implement.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrInvalidImage means image dimensions or storage are inconsistent.
	ErrInvalidImage = errors.New("invalid image")
)

// OpcodeError ties an error to a position in an opcode list.
type OpcodeError struct {
	Index int
	ID    OpcodeID
	Err   error
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("opcode %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e *OpcodeError) Unwrap() error { return e.Err }
