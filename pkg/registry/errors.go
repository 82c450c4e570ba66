package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNodeType indicates an identifier with no usable definition or handler.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrDefinitionConflict indicates an attempt to change the version of a registered identifier.
	ErrDefinitionConflict = errors.New("node definition already registered with a different version")

	// ErrInvalidDefinition indicates a definition missing its identifier.
	ErrInvalidDefinition = errors.New("node definition requires an identifier")
)

// UnknownNodeTypeError names the identifier that could not be dispatched.
type UnknownNodeTypeError struct {
	Identifier string
	Reason     string
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("unknown node type '%s': %s", e.Identifier, e.Reason)
}

func (e *UnknownNodeTypeError) Is(target error) bool {
	return target == ErrUnknownNodeType
}

// IsUnknownNodeType checks if an error indicates an undispatchable node type.
func IsUnknownNodeType(err error) bool {
	return errors.Is(err, ErrUnknownNodeType)
}
