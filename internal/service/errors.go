package service

import "fmt"

// ErrNotFound covers both untracked deployments and hosting artifacts that
// have drifted away; Resource names which one.
type ErrNotFound struct {
	Resource string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewErrNotFound(resource string) *ErrNotFound {
	return &ErrNotFound{Resource: resource}
}

type ErrInvalidArgument struct {
	Reason string
}

func (e ErrInvalidArgument) Error() string {
	return e.Reason
}

func NewErrInvalidArgument(reason string) *ErrInvalidArgument {
	return &ErrInvalidArgument{Reason: reason}
}

type ErrPreconditionFailed struct {
	Reason string
}

func (e ErrPreconditionFailed) Error() string {
	return e.Reason
}

func NewErrPreconditionFailed(reason string) *ErrPreconditionFailed {
	return &ErrPreconditionFailed{Reason: reason}
}
