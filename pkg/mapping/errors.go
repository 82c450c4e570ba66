package mapping

import (
	"errors"
	"fmt"
)

// ErrUnknownTransformation indicates an edge mapping references a transformation
// function id missing from the catalog.
var ErrUnknownTransformation = errors.New("unknown transformation")

// UnknownTransformationError names the missing transformation function.
type UnknownTransformationError struct {
	FunctionID string
}

func (e *UnknownTransformationError) Error() string {
	return fmt.Sprintf("unknown transformation '%s'", e.FunctionID)
}

func (e *UnknownTransformationError) Is(target error) bool {
	return target == ErrUnknownTransformation
}

// TransformationError wraps a failure raised by a transformation function.
type TransformationError struct {
	FunctionID  string
	TargetField string
	Err         error
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("transformation '%s' for field '%s' failed: %v", e.FunctionID, e.TargetField, e.Err)
}

func (e *TransformationError) Unwrap() error {
	return e.Err
}

// IsUnknownTransformation checks if an error indicates a missing transformation function.
func IsUnknownTransformation(err error) bool {
	return errors.Is(err, ErrUnknownTransformation)
}
