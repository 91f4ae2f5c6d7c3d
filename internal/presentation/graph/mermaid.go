package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/passivate/pkg/domain"
)

// Overlay marks the progress recorded by a checkpoint cursor.
type Overlay struct {
	Cursor domain.Cursor
}

// GenerateMermaid produces a Mermaid flowchart of a compiled tree.
// It applies semantic styling:
// - Action: [[Subroutine]] labelled with its capability
// - Conditional: {Rhombus}
// - Loop: [/Parallelogram/]
// - Sequence: [Rectangle]
// With an overlay, the containers on the cursor are styled as current and
// the children they already finished as visited.
func GenerateMermaid(tree *domain.Tree, overlay *Overlay) (string, error) {
	if err := tree.Compile(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	err := tree.Walk(func(n domain.Node) error {
		id := sanitizeMermaidID(n.ID())
		switch v := n.(type) {
		case *domain.Action:
			fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", id, v.Capability)
		case *domain.Conditional:
			fmt.Fprintf(&sb, "    %s{\"%s\"}\n", id, label(n))
			fmt.Fprintf(&sb, "    %s -- \"then\" --> %s\n", id, sanitizeMermaidID(v.Then.ID()))
			if v.Else != nil {
				fmt.Fprintf(&sb, "    %s -- \"else\" --> %s\n", id, sanitizeMermaidID(v.Else.ID()))
			}
		case *domain.Loop:
			fmt.Fprintf(&sb, "    %s[/\"%s\"/]\n", id, label(n))
			fmt.Fprintf(&sb, "    %s -- \"each\" --> %s\n", id, sanitizeMermaidID(v.Body.ID()))
		case *domain.Sequence:
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, label(n))
			for i, step := range v.Steps {
				fmt.Fprintf(&sb, "    %s -- \"%d\" --> %s\n", id, i+1, sanitizeMermaidID(step.ID()))
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if overlay != nil {
		writeOverlay(&sb, tree, overlay)
	}
	return sb.String(), nil
}

func writeOverlay(sb *strings.Builder, tree *domain.Tree, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for contrast on light backgrounds, regardless of theme.
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	for _, f := range overlay.Cursor.Frames {
		n, ok := tree.Node(f.Node)
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "    class %s current;\n", sanitizeMermaidID(f.Node))
		if s, ok := n.(*domain.Sequence); ok {
			for i := 0; i < f.Next && i < len(s.Steps); i++ {
				fmt.Fprintf(sb, "    class %s visited;\n", sanitizeMermaidID(s.Steps[i].ID()))
			}
		}
	}
}

func label(n domain.Node) string {
	return fmt.Sprintf("%s <br/> %s", n.ID(), n.Kind())
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
