package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// RecordRow is the flattened form of a record for structured output.
type RecordRow struct {
	N         int64        `json:"n" yaml:"n"`
	Count     int          `json:"count" yaml:"count"`
	Solutions []core.Tuple `json:"solutions" yaml:"solutions"`
}

func recordRow(rec core.Record) RecordRow {
	sols := rec.Solutions.Tuples()
	if sols == nil {
		sols = []core.Tuple{}
	}
	return RecordRow{N: rec.N, Count: rec.Solutions.Len(), Solutions: sols}
}

func formatSolutions(rec core.Record) string {
	tuples := rec.Solutions.Tuples()
	parts := make([]string, len(tuples))
	for i, t := range tuples {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// RecordLine formats one record the way the text stream prints it.
func (r *Renderer) RecordLine(rec core.Record) string {
	if rec.Empty() {
		return r.styles.Muted.Render(fmt.Sprintf("no solutions for n = %d", rec.N))
	}
	tuples := rec.Solutions.Tuples()
	parts := make([]string, len(tuples))
	for i, t := range tuples {
		parts[i] = r.styles.Tuple.Render(t.String())
	}
	return fmt.Sprintf("%s %s", r.styles.Bold.Render(fmt.Sprintf("n = %d:", rec.N)), strings.Join(parts, ", "))
}

// Records renders a list of records in the effective mode.
func (r *Renderer) Records(records []core.Record) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(recordRows(records))
	case ModeYAML:
		return r.YAML(recordRows(records))
	case ModeText:
		for _, rec := range records {
			r.Println(r.RecordLine(rec))
		}
		return nil
	default:
		rows := make([][]string, len(records))
		for i, rec := range records {
			rows[i] = []string{
				strconv.FormatInt(rec.N, 10),
				strconv.Itoa(rec.Solutions.Len()),
				formatSolutions(rec),
			}
		}
		return r.Table([]string{"n", "count", "solutions"}, rows)
	}
}

func recordRows(records []core.Record) []RecordRow {
	rows := make([]RecordRow, len(records))
	for i, rec := range records {
		rows[i] = recordRow(rec)
	}
	return rows
}

// Runs renders a run listing.
func (r *Renderer) Runs(runs []*core.Run) error {
	if runs == nil {
		runs = []*core.Run{}
	}
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(runs)
	case ModeYAML:
		return r.YAML(runs)
	}

	if len(runs) == 0 && r.EffectiveMode() == ModeText {
		r.Muted("(no runs recorded)")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.ID,
			string(run.Status),
			run.Expression,
			strings.Join(run.Variables, ","),
			fmt.Sprintf("%d..%d", run.NStart, run.NEnd),
			strconv.FormatInt(run.Radius, 10),
			fmt.Sprintf("%d/%d", run.Processed, run.Total()),
			run.StartedAt.Local().Format(time.DateTime),
		}
	}
	return r.Table([]string{"id", "status", "expression", "variables", "n", "radius", "processed", "started"}, rows)
}

// RunDetail is the structured form of `runs show`.
type RunDetail struct {
	Run     *core.Run   `json:"run" yaml:"run"`
	Records []RecordRow `json:"records" yaml:"records"`
}

// Run renders one run with its records.
func (r *Renderer) Run(run *core.Run, records []core.Record) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(RunDetail{Run: run, Records: recordRows(records)})
	case ModeYAML:
		return r.YAML(RunDetail{Run: run, Records: recordRows(records)})
	case ModeCSV:
		return r.Records(records)
	}

	r.Header(1, "Run "+run.ID)
	r.runField("Expression", run.Expression)
	r.runField("Variables", strings.Join(run.Variables, ", "))
	r.runField("Range", fmt.Sprintf("n = %d..%d, R = %d", run.NStart, run.NEnd, run.Radius))
	r.runField("Evaluator", run.Evaluator)
	r.runField("Status", string(run.Status))
	r.runField("Processed", fmt.Sprintf("%d/%d", run.Processed, run.Total()))
	if run.Error != "" {
		r.runField("Error", run.Error)
	}
	r.Println("")
	return r.Records(records)
}

func (r *Renderer) runField(name, value string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Printf("- **%s:** %s\n", name, value)
		return
	}
	r.Printf("%s %s\n", r.styles.Muted.Render(name+":"), value)
}

// Surface renders sampled surface points.
func (r *Renderer) Surface(s *expression.Surface) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(s)
	case ModeYAML:
		return r.YAML(s)
	}

	header := []string{s.Variables[0]}
	if len(s.Variables) == 2 {
		header = append(header, s.Variables[1])
	}
	header = append(header, "value", "plane")

	rows := make([][]string, len(s.Points))
	for i, p := range s.Points {
		row := []string{strconv.FormatInt(p.X, 10)}
		if len(s.Variables) == 2 {
			row = append(row, strconv.FormatInt(p.Y, 10))
		}
		row = append(row,
			strconv.FormatFloat(p.Z, 'g', -1, 64),
			strconv.FormatInt(s.Target, 10),
		)
		rows[i] = row
	}
	return r.Table(header, rows)
}

// EventPrinter streams engine events. Text, markdown and json modes print
// as events arrive; the tabular modes collect records and print them when
// the run finishes.
type EventPrinter struct {
	r        *Renderer
	progress bool
	records  []core.Record
	header   bool
}

// NewEventPrinter creates a printer. When progress is set, progress events
// are shown on the diagnostic writer in text mode.
func NewEventPrinter(r *Renderer, progress bool) *EventPrinter {
	return &EventPrinter{r: r, progress: progress}
}

// Print renders a single event.
func (p *EventPrinter) Print(ev engine.Event) error {
	r := p.r
	mode := r.EffectiveMode()

	if mode == ModeJSON {
		return r.JSONLine(eventJSON(ev))
	}

	switch ev.Kind {
	case engine.EventResult:
		if ev.Record == nil {
			return nil
		}
		switch mode {
		case ModeText:
			r.Println(r.RecordLine(*ev.Record))
		case ModeMarkdown:
			if !p.header {
				r.Println("| n | solutions |")
				r.Println("| ---: | --- |")
				p.header = true
			}
			sols := formatSolutions(*ev.Record)
			if sols == "" {
				sols = "_none_"
			}
			r.Printf("| %d | %s |\n", ev.Record.N, sols)
		default:
			p.records = append(p.records, *ev.Record)
		}

	case engine.EventProgress:
		if p.progress && mode == ModeText {
			_, _ = fmt.Fprintf(r.errOut, "\rprogress: %3d%% (%d/%d)", ev.Percent(), ev.Processed, ev.Total)
		}

	case engine.EventFinished:
		if p.progress && mode == ModeText {
			_, _ = fmt.Fprintln(r.errOut)
		}
		if len(p.records) > 0 {
			if err := r.Records(p.records); err != nil {
				return err
			}
			p.records = nil
		}
		msg := fmt.Sprintf("search %s: %d/%d targets scanned", ev.Status, ev.Processed, ev.Total)
		switch mode {
		case ModeMarkdown:
			r.Println("")
			r.Printf("**Status:** %s (%d/%d)\n", ev.Status, ev.Processed, ev.Total)
		case ModeText:
			if ev.Status == core.RunStatusCompleted {
				r.Success(msg)
			} else {
				r.Warning(msg)
			}
		default:
			_, _ = fmt.Fprintln(r.errOut, msg)
		}

	case engine.EventError:
		// The caller reports the run error.
		if p.progress && mode == ModeText {
			_, _ = fmt.Fprintln(r.errOut)
		}
	}
	return nil
}

type jsonEvent struct {
	engine.Event
	Error string `json:"error,omitempty"`
}

func eventJSON(ev engine.Event) jsonEvent {
	return jsonEvent{Event: ev, Error: ev.Message()}
}
