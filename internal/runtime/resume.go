package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/passivate/pkg/domain"
)

// checkCursor re-attaches every frame of cursor to tree, top-down, without
// running any predicate or action. Loop selectors are consulted to bound the
// persisted index and to find the item the in-flight body was running on.
func checkCursor(ctx context.Context, tree *domain.Tree, cursor domain.Cursor, param any) error {
	mismatch := func(depth int, format string, args ...any) error {
		return &domain.TreeMismatchError{TreeID: tree.ID, Depth: depth, Reason: fmt.Sprintf(format, args...)}
	}

	if cursor.Depth() == 0 {
		return mismatch(0, "cursor is empty")
	}

	node := tree.Root
	for d, f := range cursor.Frames {
		if node == nil {
			return mismatch(d, "frame '%s' continues past a leaf", f.Node)
		}
		if f.Node != node.ID() || f.Kind != node.Kind() {
			return mismatch(d, "frame '%s' (%s) does not match node '%s' (%s)", f.Node, f.Kind, node.ID(), node.Kind())
		}
		last := d == cursor.Depth()-1

		switch n := node.(type) {
		case *domain.Action:
			return mismatch(d, "action '%s' cannot own a frame", n.ID())

		case *domain.Conditional:
			if f.Branch != domain.BranchThen && f.Branch != domain.BranchElse {
				return mismatch(d, "conditional '%s' has no active branch (%q)", n.ID(), f.Branch)
			}
			node = n.Branch(f.Branch)
			if node == nil {
				return mismatch(d, "conditional '%s' has no '%s' branch", n.ID(), f.Branch)
			}
			if last {
				return mismatch(d, "conditional '%s' cannot be the innermost frame", n.ID())
			}

		case *domain.Loop:
			items, err := n.Select(ctx, param)
			if err != nil {
				return fmt.Errorf("selector at %s: %w", n.ID(), err)
			}
			if f.Next < 0 || f.Next > len(items) {
				return mismatch(d, "loop '%s' index %d out of range [0,%d]", n.ID(), f.Next, len(items))
			}
			if f.Next == len(items) {
				if !last {
					return mismatch(d, "loop '%s' is exhausted but has a child frame", n.ID())
				}
				return nil
			}
			node, param = n.Body, items[f.Next]

		case *domain.Sequence:
			if f.Next < 0 || f.Next > len(n.Steps) {
				return mismatch(d, "sequence '%s' index %d out of range [0,%d]", n.ID(), f.Next, len(n.Steps))
			}
			if f.Next == len(n.Steps) {
				if !last {
					return mismatch(d, "sequence '%s' is exhausted but has a child frame", n.ID())
				}
				return nil
			}
			node = n.Steps[f.Next]

		default:
			return mismatch(d, "unsupported node type %T", node)
		}
	}
	return nil
}
