package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// progressDoneMsg carries the work's one-line result, shown in place of the spinner.
type progressDoneMsg struct {
	summary string
	err     error
}

type progressSpinnerModel struct {
	spinner spinner.Model
	label   string
	work    tea.Cmd
	summary string
	err     error
	done    bool
}

var progressDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

func newProgressSpinnerModel(label string, work tea.Cmd) progressSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return progressSpinnerModel{
		spinner: s,
		label:   label,
		work:    work,
	}
}

func (m progressSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m progressSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressDoneMsg:
		m.done = true
		m.summary = msg.summary
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m progressSpinnerModel) View() string {
	if m.done {
		if m.err != nil || m.summary == "" {
			return ""
		}
		return progressDoneStyle.Render("✓ "+m.summary) + "\n"
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runProgressSpinner shows label on output while work runs, then the summary it returns.
func runProgressSpinner(ctx context.Context, output io.Writer, label string, work func(context.Context) (string, error)) error {
	workCmd := func() tea.Msg {
		summary, err := work(ctx)
		return progressDoneMsg{summary: summary, err: err}
	}

	p := tea.NewProgram(
		newProgressSpinnerModel(label, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(progressSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}

// runWithProgress skips the spinner for machine-readable output.
func runWithProgress(ctx context.Context, output io.Writer, format, label string, work func(context.Context) (string, error)) error {
	if format != outputText {
		_, err := work(ctx)
		return err
	}
	return runProgressSpinner(ctx, output, label, work)
}
