package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTree is returned when a tree is empty or malformed. Fatal, rejected at run entry.
var ErrInvalidTree = errors.New("invalid tree")

// ErrTreeMismatch is returned when a checkpoint does not fit the tree it is resumed against.
var ErrTreeMismatch = errors.New("tree mismatch")

// ErrUnsupportedCheckpointVersion is returned when a serialized checkpoint has an unknown format version.
var ErrUnsupportedCheckpointVersion = errors.New("unsupported checkpoint version")

// ErrCheckpointNotFound is returned when a checkpoint key cannot be found in the store.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ErrActionFailed is returned when an action capability reports an error.
var ErrActionFailed = errors.New("action failed")

// InvalidTreeError describes why a tree was rejected.
type InvalidTreeError struct {
	Node   string
	Reason string
}

func (e *InvalidTreeError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("invalid tree: %s", e.Reason)
	}
	return fmt.Sprintf("invalid tree: node '%s': %s", e.Node, e.Reason)
}

func (e *InvalidTreeError) Is(target error) bool { return target == ErrInvalidTree }

// TreeMismatchError describes where a checkpoint cursor disagrees with a tree.
type TreeMismatchError struct {
	TreeID string
	Depth  int
	Reason string
}

func (e *TreeMismatchError) Error() string {
	return fmt.Sprintf("tree mismatch on '%s' at depth %d: %s", e.TreeID, e.Depth, e.Reason)
}

func (e *TreeMismatchError) Is(target error) bool { return target == ErrTreeMismatch }

// ActionFailedError carries the path of the failing action and the capability error.
type ActionFailedError struct {
	Path       []string
	Capability string
	Err        error
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action '%s' at %s failed: %v", e.Capability, strings.Join(e.Path, " > "), e.Err)
}

func (e *ActionFailedError) Is(target error) bool { return target == ErrActionFailed }

func (e *ActionFailedError) Unwrap() error { return e.Err }
