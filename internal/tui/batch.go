package tui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Faultbox/stlthumb/internal/thumbnail"
)

const maxBarWidth = 60

// ProgressMsg reports one finished file.
type ProgressMsg thumbnail.Progress

// DoneMsg carries the final report and ends the program.
type DoneMsg thumbnail.Report

// BatchModel is the bubbletea model for a running batch.
type BatchModel struct {
	total   int
	done    int
	written int
	skipped int
	failed  int
	warned  []string // Models framed with the minimum extent

	current string
	errs    []string // Last few failures, newest last

	bar       progress.Model
	cancel    context.CancelFunc
	canceling bool
	finished  bool
}

// NewBatch returns a model for total files. cancel is called once when the
// user asks to stop.
func NewBatch(total int, cancel context.CancelFunc) BatchModel {
	return BatchModel{
		total:  total,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: cancel,
	}
}

func (m BatchModel) Init() tea.Cmd { return nil }

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.canceling && m.cancel != nil {
				m.cancel()
			}
			m.canceling = true
		}
	case ProgressMsg:
		m.done = msg.Index + 1
		m.current = msg.Ref
		if msg.Degenerate {
			m.warned = append(m.warned, filepath.Base(msg.Ref))
		}
		switch {
		case msg.Err != nil:
			m.failed++
			m.errs = append(m.errs, fmt.Sprintf("%s: %v", filepath.Base(msg.Ref), msg.Err))
			if len(m.errs) > 3 {
				m.errs = m.errs[len(m.errs)-3:]
			}
		case msg.Outcome == thumbnail.OutcomeWritten:
			m.written++
		default:
			m.skipped++
		}
	case DoneMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

// Percent is the completed fraction, 1 for an empty batch.
func (m BatchModel) Percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m BatchModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Generating thumbnails"))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString("\n")
	b.WriteString(DimStyle.Render(fmt.Sprintf("%d/%d  ", m.done, m.total)))
	b.WriteString(OKStyle.Render(fmt.Sprintf("%d written", m.written)))
	b.WriteString(DimStyle.Render(fmt.Sprintf("  %d skipped  ", m.skipped)))
	if m.failed > 0 {
		b.WriteString(ErrStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	} else {
		b.WriteString(DimStyle.Render("0 failed"))
	}
	b.WriteString("\n")
	if m.current != "" && !m.finished {
		b.WriteString(DimStyle.Render(m.current))
		b.WriteString("\n")
	}
	if len(m.warned) > 0 {
		b.WriteString(WarnStyle.Render(fmt.Sprintf("%d degenerate: %s", len(m.warned), strings.Join(m.warned, ", "))))
		b.WriteString("\n")
	}
	for _, e := range m.errs {
		b.WriteString(ErrStyle.Render("✗ "))
		b.WriteString(e)
		b.WriteString("\n")
	}
	if m.canceling && !m.finished {
		b.WriteString(WarnStyle.Render("Stopping after the current file..."))
		b.WriteString("\n")
	}
	return b.String()
}

// RunBatch runs g.Batch behind a live progress view written to out.
// The batch always runs to its own end (or cancellation point) before
// RunBatch returns.
func RunBatch(ctx context.Context, g *thumbnail.Generator, refs []string, overwrite bool, out io.Writer) (thumbnail.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewBatch(len(refs), cancel), tea.WithOutput(out))

	done := make(chan thumbnail.Report, 1)
	go func() {
		r := g.Batch(ctx, refs, overwrite, func(pr thumbnail.Progress) {
			p.Send(ProgressMsg(pr))
		})
		done <- r
		p.Send(DoneMsg(r))
	}()

	_, err := p.Run()
	if err != nil {
		cancel()
	}
	return <-done, err
}
