package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/stlthumb/internal/thumbnail"
)

// PlainProgress returns a batch callback that prints one line per file,
// for output that is not a terminal.
func PlainProgress(w io.Writer) func(thumbnail.Progress) {
	width := 0
	return func(p thumbnail.Progress) {
		if width == 0 {
			width = len(fmt.Sprint(p.Total))
		}
		counter := DimStyle.Render(fmt.Sprintf("[%*d/%d]", width, p.Done(), p.Total))
		var status string
		switch {
		case p.Err != nil:
			status = ErrStyle.Render("failed ")
		case p.Outcome == thumbnail.OutcomeWritten:
			status = OKStyle.Render("written")
		default:
			status = DimStyle.Render("skipped")
		}
		line := fmt.Sprintf("%s %s %s", counter, status, p.Ref)
		if p.Degenerate {
			line += " " + WarnStyle.Render("(degenerate geometry)")
		}
		fmt.Fprintln(w, line)
		if p.Err != nil {
			fmt.Fprintf(w, "%s %v\n", strings.Repeat(" ", width*2+3), p.Err)
		}
	}
}

// Summary renders the outcome of a batch as a boxed block.
func Summary(r thumbnail.Report) string {
	rows := [][2]string{
		{"Written", OKStyle.Render(fmt.Sprint(len(r.Written)))},
		{"Skipped", fmt.Sprint(len(r.Skipped))},
	}
	failed := fmt.Sprint(len(r.Failed))
	if len(r.Failed) > 0 {
		failed = ErrStyle.Render(failed)
	}
	rows = append(rows, [2]string{"Failed", failed})
	if len(r.Degenerate) > 0 {
		rows = append(rows, [2]string{"Degenerate", WarnStyle.Render(fmt.Sprint(len(r.Degenerate)))})
	}
	if r.Canceled {
		rows = append(rows, [2]string{"Not started", WarnStyle.Render(fmt.Sprint(len(r.Pending)))})
	}

	body := KV(rows...)
	if len(r.Failed) > 0 {
		var b strings.Builder
		for _, f := range r.Failed {
			fmt.Fprintf(&b, "\n%s %s: %v", ErrStyle.Render("✗"), f.Ref, f.Err)
		}
		body += "\n" + b.String()
	}
	if len(r.Degenerate) > 0 {
		var b strings.Builder
		for _, ref := range r.Degenerate {
			fmt.Fprintf(&b, "\n%s %s: zero extent, framed with minimum size", WarnStyle.Render("!"), ref)
		}
		body += "\n" + b.String()
	}

	title := TitleStyle.Render("Batch complete")
	if r.Canceled {
		title = WarnStyle.Render("Batch canceled")
	}
	return BoxStyle.Render(title + "\n\n" + body)
}
