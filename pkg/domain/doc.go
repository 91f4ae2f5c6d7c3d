/*
Package domain contains the core models of the statement-tree interpreter.

It defines the control-flow nodes, the execution cursor and the checkpoint
snapshot. This package is kept pure and free of external dependencies like
I/O or persistence.

# Key Entities

  - Node: Action, Conditional, Loop or Sequence, compiled into a Tree.
  - Cursor: the path-stack of active frames and their progress markers.
  - Checkpoint: the inert snapshot {tree id, cursor, parameter} of a suspended run.
  - LifecycleHooks: callbacks emitted while the interpreter walks a tree.
*/
package domain
