package cli

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type fder interface {
	Fd() uintptr
}

// progressBar redraws one status line while bytes arrive. Output that is
// not a terminal only gets the final summary.
type progressBar struct {
	out  io.Writer
	tty  bool
	last purchase.Progress
}

func newProgressBar(out io.Writer) *progressBar {
	tty := false
	if f, ok := out.(fder); ok {
		tty = isTerminal(int(f.Fd()))
	}
	return &progressBar{out: out, tty: tty}
}

func (p *progressBar) Update(pr purchase.Progress) {
	p.last = pr
	if !p.tty {
		return
	}
	if pr.Total > 0 {
		fmt.Fprintf(p.out, "\r%s / %s (%d%%)", humanBytes(pr.Done), humanBytes(pr.Total), pr.Done*100/pr.Total)
		return
	}
	fmt.Fprintf(p.out, "\r%s", humanBytes(pr.Done))
}

func (p *progressBar) Finish() {
	if p.tty {
		fmt.Fprintln(p.out)
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
