package domain

import "context"

// NodeKind identifies the control-flow behavior of a node.
type NodeKind string

const (
	// KindAction invokes an injected capability. Leaf, never suspends.
	KindAction NodeKind = "action"
	// KindConditional evaluates a predicate once and delegates to a branch.
	KindConditional NodeKind = "conditional"
	// KindLoop runs its body once per item selected from the parameter.
	KindLoop NodeKind = "loop"
	// KindSequence runs its steps in order against the same parameter.
	KindSequence NodeKind = "sequence"
)

// Predicate decides which branch a Conditional takes.
type Predicate func(ctx context.Context, param any) (bool, error)

// Selector draws the ordered items a Loop iterates over.
// It must be deterministic for a given parameter: resumption re-selects
// the items and continues at the persisted index.
type Selector func(ctx context.Context, param any) ([]any, error)

// Node is a unit of the statement tree.
// Nodes are immutable once the tree is compiled; all progress lives in the Cursor.
type Node interface {
	// ID returns the stable path of the node inside its tree.
	ID() string
	// Kind returns the node variant.
	Kind() NodeKind
}

// Action is a leaf that invokes a capability by its stable name.
type Action struct {
	Name       string
	Capability string

	id string
}

func (a *Action) ID() string     { return a.id }
func (a *Action) Kind() NodeKind { return KindAction }

// Conditional evaluates Predicate on first visit and delegates to Then or Else.
// Else may be nil, in which case a false predicate completes the node.
type Conditional struct {
	Name      string
	Predicate Predicate
	Then      Node
	Else      Node

	id string
}

func (c *Conditional) ID() string     { return c.id }
func (c *Conditional) Kind() NodeKind { return KindConditional }

// Loop runs Body once per item returned by Select, in order.
// The body receives the item as its parameter.
type Loop struct {
	Name   string
	Select Selector
	Body   Node

	id string
}

func (l *Loop) ID() string     { return l.id }
func (l *Loop) Kind() NodeKind { return KindLoop }

// Sequence is an ordered step queue consumed front to back.
// Every step receives the carried parameter unchanged.
type Sequence struct {
	Name  string
	Steps []Node

	id string
}

func (s *Sequence) ID() string     { return s.id }
func (s *Sequence) Kind() NodeKind { return KindSequence }

// BranchTag records which branch a Conditional took.
type BranchTag string

const (
	BranchNone BranchTag = ""
	BranchThen BranchTag = "then"
	BranchElse BranchTag = "else"
	// BranchSkip marks a false predicate with no Else branch.
	BranchSkip BranchTag = "skip"
)

// Branch returns the node selected by tag, or nil when the tag selects nothing.
func (c *Conditional) Branch(tag BranchTag) Node {
	switch tag {
	case BranchThen:
		return c.Then
	case BranchElse:
		return c.Else
	default:
		return nil
	}
}
