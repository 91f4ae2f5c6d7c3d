package domain

import (
	"fmt"
	"strconv"
	"sync"
)

// RootSegment is the path segment of an unnamed root node.
const RootSegment = "root"

// Tree is a compiled statement tree plus the tag used to re-attach checkpoints.
// A Tree is read-only after Compile and may be shared by concurrent runs.
type Tree struct {
	// ID identifies the tree for checkpoint validation.
	ID string

	// Root is the first node executed.
	Root Node

	// NewParameter returns a pointer to a zero parameter. The checkpoint codec
	// decodes into it and carries the pointed-to value. If nil, parameters are
	// decoded as plain JSON values.
	NewParameter func() any

	once  sync.Once
	err   error
	index map[string]Node
}

// NewTree creates a tree with the given id and root. NewParameter is left
// nil, so a resumed run carries its parameter as decoded JSON (maps, slices,
// float64) rather than the value the run started with. Set NewParameter, or
// build the tree with dsl.Tree, when predicates or selectors assert a
// concrete type.
func NewTree(id string, root Node) *Tree {
	return &Tree{ID: id, Root: root}
}

// Compile assigns stable paths to every node and validates the shape.
// It is idempotent; the first result is cached.
func (t *Tree) Compile() error {
	if t == nil {
		return &InvalidTreeError{Reason: "tree is nil"}
	}
	t.once.Do(func() {
		t.err = t.compile()
	})
	return t.err
}

func (t *Tree) compile() error {
	if t.ID == "" {
		return &InvalidTreeError{Reason: "tree id is empty"}
	}
	if t.Root == nil {
		return &InvalidTreeError{Reason: "tree has no root"}
	}
	t.index = make(map[string]Node)
	return t.assign(t.Root, "", RootSegment)
}

func (t *Tree) assign(n Node, parent, segment string) error {
	if n == nil {
		return &InvalidTreeError{Node: parent, Reason: fmt.Sprintf("child '%s' is nil", segment)}
	}

	if name := nodeName(n); name != "" {
		segment = name
	}
	id := segment
	if parent != "" {
		id = parent + "/" + segment
	}

	// A node may be re-attached by another tree at the same path, never at a second one.
	if existing := n.ID(); existing != "" && existing != id {
		return &InvalidTreeError{Node: id, Reason: fmt.Sprintf("node already attached at '%s'", existing)}
	}
	if _, dup := t.index[id]; dup {
		return &InvalidTreeError{Node: id, Reason: "duplicate node path"}
	}
	t.index[id] = n

	switch v := n.(type) {
	case *Action:
		v.id = id
		if v.Capability == "" {
			return &InvalidTreeError{Node: id, Reason: "action has no capability"}
		}
	case *Conditional:
		v.id = id
		if v.Predicate == nil {
			return &InvalidTreeError{Node: id, Reason: "conditional has no predicate"}
		}
		if err := t.assign(v.Then, id, string(BranchThen)); err != nil {
			return err
		}
		if v.Else != nil {
			if err := t.assign(v.Else, id, string(BranchElse)); err != nil {
				return err
			}
		}
	case *Loop:
		v.id = id
		if v.Select == nil {
			return &InvalidTreeError{Node: id, Reason: "loop has no selector"}
		}
		if err := t.assign(v.Body, id, "body"); err != nil {
			return err
		}
	case *Sequence:
		v.id = id
		if len(v.Steps) == 0 {
			return &InvalidTreeError{Node: id, Reason: "sequence has no steps"}
		}
		for i, step := range v.Steps {
			if err := t.assign(step, id, "steps/"+strconv.Itoa(i)); err != nil {
				return err
			}
		}
	default:
		return &InvalidTreeError{Node: id, Reason: fmt.Sprintf("unsupported node type %T", n)}
	}
	return nil
}

func nodeName(n Node) string {
	switch v := n.(type) {
	case *Action:
		return v.Name
	case *Conditional:
		return v.Name
	case *Loop:
		return v.Name
	case *Sequence:
		return v.Name
	}
	return ""
}

// Node returns the node compiled at the given path.
func (t *Tree) Node(id string) (Node, bool) {
	n, ok := t.index[id]
	return n, ok
}

// Walk visits every node depth-first, parents before children.
func (t *Tree) Walk(fn func(Node) error) error {
	if err := t.Compile(); err != nil {
		return err
	}
	return walk(t.Root, fn)
}

func walk(n Node, fn func(Node) error) error {
	if n == nil {
		return nil
	}
	if err := fn(n); err != nil {
		return err
	}
	switch v := n.(type) {
	case *Conditional:
		if err := walk(v.Then, fn); err != nil {
			return err
		}
		return walk(v.Else, fn)
	case *Loop:
		return walk(v.Body, fn)
	case *Sequence:
		for _, step := range v.Steps {
			if err := walk(step, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
