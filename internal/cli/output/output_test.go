package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

func newTestRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewRenderer(&out, &errOut, mode), &out, &errOut
}

func sampleRecords() []core.Record {
	return []core.Record{
		{N: 3, Solutions: core.NewSolutionSet(core.Tuple{1, 1, 1})},
		{N: 4},
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{ModeAuto, ModeMarkdown}, // buffers are never terminals
		{"", ModeMarkdown},
		{"md", ModeMarkdown},
		{ModeText, ModeText},
		{ModeJSON, ModeJSON},
		{ModeCSV, ModeCSV},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.False(t, r.IsTTY())
		})
	}
}

func TestRenderer_TextHasNoEscapes(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText)
	r.Header(1, "Runs")
	r.Success("done")
	assert.Equal(t, "Runs\ndone\n", out.String())
}

func TestRenderer_MarkdownHeader(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)
	r.Header(2, "Results")
	assert.Equal(t, "## Results\n\n", out.String())
}

func TestRenderer_Records(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText)
		require.NoError(t, r.Records(sampleRecords()))
		assert.Equal(t, "n = 3: (1, 1, 1)\nno solutions for n = 4\n", out.String())
	})

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON)
		require.NoError(t, r.Records(sampleRecords()))

		var rows []RecordRow
		require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].Count)
		assert.Equal(t, []core.Tuple{{1, 1, 1}}, rows[0].Solutions)
		assert.Empty(t, rows[1].Solutions)
		assert.Contains(t, out.String(), `"solutions": []`)
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeYAML)
		require.NoError(t, r.Records(sampleRecords()))

		var rows []map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, 4, rows[1]["n"])
	})

	t.Run("csv", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeCSV)
		require.NoError(t, r.Records(sampleRecords()))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "3,1,\"(1, 1, 1)\"", lines[1])
		assert.Equal(t, "4,0,", lines[2])

		rows, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"n", "count", "solutions"},
			{"3", "1", "(1, 1, 1)"},
			{"4", "0", ""},
		}, rows)
	})

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown)
		require.NoError(t, r.Records(sampleRecords()))
		assert.Contains(t, out.String(), "| 3 | 1 | (1, 1, 1) |")
	})

	t.Run("table", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeTable)
		require.NoError(t, r.Records(sampleRecords()))
		assert.Contains(t, out.String(), "(1, 1, 1)")
		assert.Contains(t, out.String(), "┌")
	})
}

func TestRenderer_Runs(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	runs := []*core.Run{{
		ID: "run-1", Expression: "x**3", Variables: []string{"x"},
		NStart: 1, NEnd: 5, Radius: 2, Status: core.RunStatusCompleted,
		Processed: 5, StartedAt: started,
	}}

	t.Run("table", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeTable)
		require.NoError(t, r.Runs(runs))
		assert.Contains(t, out.String(), "run-1")
		assert.Contains(t, out.String(), "1..5")
		assert.Contains(t, out.String(), "5/5")
	})

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON)
		require.NoError(t, r.Runs(runs))

		var got []core.Run
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "run-1", got[0].ID)
	})

	t.Run("empty json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON)
		require.NoError(t, r.Runs(nil))
		assert.Equal(t, "[]\n", out.String())
	})

	t.Run("empty text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText)
		require.NoError(t, r.Runs(nil))
		assert.Contains(t, out.String(), "no runs recorded")
	})

	t.Run("csv", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeCSV)
		multi := []*core.Run{{
			ID: "run-2", Expression: "x**2 - 2*y**2", Variables: []string{"x", "y"},
			NStart: -1, NEnd: 1, Radius: 3, Status: core.RunStatusCompleted,
			Processed: 3, StartedAt: started,
		}}
		require.NoError(t, r.Runs(multi))

		rows, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "variables", rows[0][3])
		assert.Equal(t, "x,y", rows[1][3])
		assert.Equal(t, "-1..1", rows[1][4])
	})
}

func TestRenderer_Run(t *testing.T) {
	run := &core.Run{
		ID: "abc", Expression: "x*y", Variables: []string{"x", "y"},
		NStart: 3, NEnd: 4, Radius: 1, Evaluator: "native",
		Status: core.RunStatusCancelled, Processed: 1, Error: "",
	}

	r, out, _ := newTestRenderer(ModeMarkdown)
	require.NoError(t, r.Run(run, sampleRecords()[:1]))

	got := out.String()
	assert.Contains(t, got, "# Run abc")
	assert.Contains(t, got, "- **Variables:** x, y")
	assert.Contains(t, got, "- **Status:** cancelled")
	assert.Contains(t, got, "(1, 1, 1)")
}

func TestRenderer_Surface(t *testing.T) {
	e, err := expression.Compile("x*y", []string{"x", "y"})
	require.NoError(t, err)
	s, err := expression.SampleSurface(e, 1, 0)
	require.NoError(t, err)

	r, out, _ := newTestRenderer(ModeCSV)
	require.NoError(t, r.Surface(s))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 10) // header + 3x3 grid
	assert.Contains(t, lines, "-1,-1,1,0")
}

func TestEventPrinter_Text(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText)
	p := NewEventPrinter(r, true)

	rec := sampleRecords()[0]
	require.NoError(t, p.Print(engine.Event{Kind: engine.EventResult, Record: &rec}))
	require.NoError(t, p.Print(engine.Event{Kind: engine.EventProgress, Processed: 1, Total: 2, Fraction: 0.5}))
	require.NoError(t, p.Print(engine.Event{Kind: engine.EventFinished, Status: core.RunStatusCompleted, Processed: 2, Total: 2}))

	assert.Equal(t, "n = 3: (1, 1, 1)\nsearch completed: 2/2 targets scanned\n", out.String())
	assert.Contains(t, errOut.String(), "progress:  50% (1/2)")
}

func TestEventPrinter_JSONLines(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON)
	p := NewEventPrinter(r, false)

	rec := sampleRecords()[1]
	require.NoError(t, p.Print(engine.Event{Kind: engine.EventResult, RunID: "r", Record: &rec}))
	require.NoError(t, p.Print(engine.Event{Kind: engine.EventError, RunID: "r", Err: errors.New("boom")}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "n_result", first["kind"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["kind"])
	assert.Equal(t, "boom", second["error"])
}

func TestEventPrinter_TabularBuffersUntilFinished(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeCSV)
	p := NewEventPrinter(r, false)

	for _, rec := range sampleRecords() {
		rec := rec
		require.NoError(t, p.Print(engine.Event{Kind: engine.EventResult, Record: &rec}))
	}
	assert.Empty(t, out.String())

	require.NoError(t, p.Print(engine.Event{Kind: engine.EventFinished, Status: core.RunStatusCompleted, Processed: 2, Total: 2}))
	assert.Contains(t, out.String(), "4,0,")
	assert.Contains(t, errOut.String(), "search completed")
}

func TestEventPrinter_MarkdownError(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown)
	p := NewEventPrinter(r, false)

	rec := sampleRecords()[1]
	require.NoError(t, p.Print(engine.Event{Kind: engine.EventResult, Record: &rec}))
	require.NoError(t, p.Print(engine.Event{Kind: engine.EventError, Err: errors.New("bad radius")}))

	assert.Contains(t, out.String(), "| 4 | _none_ |")
	assert.NotContains(t, out.String(), "bad radius")
	assert.Empty(t, errOut.String())
}
