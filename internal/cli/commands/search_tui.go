package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/polyscan/internal/cli/output"
	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/pkg/core"
)

// recentResults is the number of result lines kept on screen.
const recentResults = 8

// eventMsg carries one engine event into the model.
type eventMsg engine.Event

// streamClosedMsg signals that the run closed its event stream.
type streamClosedMsg struct{}

// waitForEvent reads the next event from the run.
func waitForEvent(events <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// searchModel is the interactive progress view of a single run.
type searchModel struct {
	run      *engine.Run
	renderer *output.Renderer
	bar      progress.Model

	processed int64
	total     int64
	recent    []string
	records   []core.Record
	solutions int

	status   core.RunStatus
	err      error
	stopping bool
	done     bool
}

func newSearchModel(run *engine.Run, r *output.Renderer) searchModel {
	return searchModel{
		run:      run,
		renderer: r,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		total:    run.Params().Total(),
		status:   core.RunStatusRunning,
	}
}

// Init implements tea.Model.
func (m searchModel) Init() tea.Cmd {
	return waitForEvent(m.run.Events())
}

// Update implements tea.Model.
func (m searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > 60 {
			width = 60
		}
		if width > 10 {
			m.bar.Width = width
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "esc", "ctrl+c":
			// Keep reading until the worker closes the stream.
			if !m.stopping {
				m.stopping = true
				m.run.RequestStop()
			}
		}

	case eventMsg:
		m.apply(engine.Event(msg))
		return m, waitForEvent(m.run.Events())

	case streamClosedMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *searchModel) apply(ev engine.Event) {
	switch ev.Kind {
	case engine.EventResult:
		if ev.Record == nil {
			return
		}
		m.records = append(m.records, *ev.Record)
		m.solutions += ev.Record.Solutions.Len()
		m.recent = append(m.recent, m.renderer.RecordLine(*ev.Record))
		if len(m.recent) > recentResults {
			m.recent = m.recent[len(m.recent)-recentResults:]
		}
	case engine.EventProgress:
		m.processed = ev.Processed
		m.total = ev.Total
	case engine.EventFinished:
		m.status = ev.Status
		m.processed = ev.Processed
	case engine.EventError:
		m.status = core.RunStatusFailed
		m.err = ev.Err
	}
}

func (m searchModel) fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.processed) / float64(m.total)
}

// View implements tea.Model.
func (m searchModel) View() string {
	s := m.renderer.Styles()
	p := m.run.Params()

	var b strings.Builder
	b.WriteString(s.Header1.Render("polyscan search"))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(fmt.Sprintf("%s = n  over (%s) in [-%d, %d], n = %d..%d",
		p.Expression, joinVariables(p.Variables), p.Radius, p.Radius, p.NStart, p.NEnd)))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.fraction()))
	b.WriteString(fmt.Sprintf("  %d/%d targets, %d solutions\n\n", m.processed, m.total, m.solutions))

	for _, line := range m.recent {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.done:
		b.WriteString(s.Muted.Render(fmt.Sprintf("search %s", m.status)))
	case m.stopping:
		b.WriteString(s.Warning.Render("stopping..."))
	default:
		b.WriteString(s.Muted.Render("q: stop"))
	}
	b.WriteString("\n")
	return b.String()
}

// runSearchTUI drives run through the interactive view and prints the
// collected records once the program exits.
func runSearchTUI(cmd *cobra.Command, cc *CommandContext, run *engine.Run) error {
	prog := tea.NewProgram(newSearchModel(run, cc.Renderer),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.ErrOrStderr()),
	)

	final, err := prog.Run()
	if err != nil {
		run.RequestStop()
		drainEvents(run)
		return fmt.Errorf("interactive view failed: %w", err)
	}

	m, ok := final.(searchModel)
	if !ok {
		return fmt.Errorf("unexpected model type %T", final)
	}
	return m.report(cc.Renderer)
}

// report prints the records and the final status after the view closed.
func (m searchModel) report(r *output.Renderer) error {
	if m.status == core.RunStatusFailed {
		return fmt.Errorf("search failed: %w", m.err)
	}
	if len(m.records) > 0 {
		if err := r.Records(m.records); err != nil {
			return err
		}
	}
	msg := fmt.Sprintf("search %s: %d/%d targets scanned", m.status, m.processed, m.total)
	if m.status == core.RunStatusCompleted {
		r.Success(msg)
	} else {
		r.Warning(msg)
	}
	return nil
}
