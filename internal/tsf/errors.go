package tsf

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedVersion = errors.New("tsf: unrecognized version")
	ErrFieldCountMismatch  = errors.New("tsf: field count mismatch")
)

// DecodeError reports why a text could not be decoded. It unwraps to
// ErrUnrecognizedVersion or ErrFieldCountMismatch.
type DecodeError struct {
	Tag     string // raw first field
	Version int    // 0 when the tag is not a known version
	Fields  int
	Want    int
	Err     error
}

func (e *DecodeError) Error() string {
	if errors.Is(e.Err, ErrFieldCountMismatch) {
		return fmt.Sprintf("tsf: version %d expects %d fields, got %d", e.Version, e.Want, e.Fields)
	}
	return fmt.Sprintf("tsf: unrecognized version %q", e.Tag)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
