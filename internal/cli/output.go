package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/passivate"
	"github.com/aretw0/passivate/pkg/domain"
	"github.com/muesli/termenv"
)

// Printer writes run outcomes, colored when w is a terminal.
type Printer struct {
	out *termenv.Output
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: termenv.NewOutput(w)}
}

func (p *Printer) styled(s, color string) termenv.Style {
	return p.out.String(s).Foreground(p.out.Color(color))
}

// Outcome prints one line for the result of running or resuming key.
func (p *Printer) Outcome(key string, out *domain.Outcome, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(p.out, "%s %s: %v\n", p.styled("failed   ", "#f87171"), key, err)
	case out.Completed():
		fmt.Fprintf(p.out, "%s %s\n", p.styled("completed", "#34d399"), key)
	default:
		fmt.Fprintf(p.out, "%s %s at %s\n", p.styled("suspended", "#fbbf24"), key, cursorPath(out.Checkpoint))
	}
}

// Results prints every result of a bulk resume.
func (p *Printer) Results(results []passivate.Result) {
	if len(results) == 0 {
		fmt.Fprintln(p.out, "No checkpoints found.")
		return
	}
	for _, r := range results {
		p.Outcome(r.Key, r.Outcome, r.Err)
	}
}

func cursorPath(cp *domain.Checkpoint) string {
	if cp == nil || len(cp.Cursor.Frames) == 0 {
		return "-"
	}
	parts := make([]string, len(cp.Cursor.Frames))
	for i, f := range cp.Cursor.Frames {
		switch {
		case f.Branch != domain.BranchNone:
			parts[i] = fmt.Sprintf("%s[%s]", f.Node, f.Branch)
		default:
			parts[i] = fmt.Sprintf("%s[%d]", f.Node, f.Next)
		}
	}
	return strings.Join(parts, " > ")
}
