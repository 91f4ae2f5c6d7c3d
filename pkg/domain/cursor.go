package domain

// Frame is the progress marker of one active nesting level.
type Frame struct {
	// Node is the path of the node owning this frame.
	Node string `json:"node"`
	// Kind must match the node kind found at Node on resume.
	Kind NodeKind `json:"kind"`
	// Next is the index of the next item (Loop) or step (Sequence) to execute.
	Next int `json:"next"`
	// Branch is the branch a Conditional chose on its first visit.
	Branch BranchTag `json:"branch,omitempty"`
}

// Cursor is the path-stack from the root to the innermost active container.
// Frames[0] belongs to the root. Leaves never own a frame.
type Cursor struct {
	Frames []Frame `json:"frames"`
}

// Depth returns the number of active frames.
func (c *Cursor) Depth() int {
	return len(c.Frames)
}

// At returns the frame at depth d, or nil if the cursor is shallower.
func (c *Cursor) At(d int) *Frame {
	if d < 0 || d >= len(c.Frames) {
		return nil
	}
	return &c.Frames[d]
}

// Push appends a fresh frame for node and returns it.
func (c *Cursor) Push(n Node) *Frame {
	c.Frames = append(c.Frames, Frame{Node: n.ID(), Kind: n.Kind()})
	return &c.Frames[len(c.Frames)-1]
}

// Truncate drops every frame at depth d and deeper.
func (c *Cursor) Truncate(d int) {
	if d < len(c.Frames) {
		c.Frames = c.Frames[:d]
	}
}

// Clone returns a deep copy safe to hand off in a Checkpoint.
func (c Cursor) Clone() Cursor {
	frames := make([]Frame, len(c.Frames))
	copy(frames, c.Frames)
	return Cursor{Frames: frames}
}

// Path returns the node paths of the active frames, root first.
func (c *Cursor) Path() []string {
	path := make([]string, len(c.Frames))
	for i, f := range c.Frames {
		path[i] = f.Node
	}
	return path
}
