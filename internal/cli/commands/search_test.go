package commands

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/polyscan/internal/cli/testutil"
	"github.com/leapstack-labs/polyscan/internal/engine"
	"github.com/leapstack-labs/polyscan/pkg/core"
)

func squaresParams() engine.Params {
	return engine.Params{
		Expression: "x**2",
		Variables:  []string{"x"},
		NStart:     0,
		NEnd:       4,
		Radius:     3,
	}
}

func TestStreamRun_Text(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)

	eng := engineFor(cc, nil)
	run, err := eng.Start(context.Background(), squaresParams())
	require.NoError(t, err)

	require.NoError(t, streamRun(cc.Renderer, run))

	out := testutil.StripANSI(tr.Output())
	assert.Contains(t, out, "n = 0: (0)")
	assert.Contains(t, out, "n = 1: (-1), (1)")
	assert.Contains(t, out, "no solutions for n = 2")
	assert.Contains(t, out, "n = 4: (-2), (2)")
	assert.Contains(t, out, "search completed: 5/5 targets scanned")
}

func TestStreamRun_PersistsRun(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	cc := newTestContext(t, tr)

	eng, closeStore, err := newEngine(cc)
	require.NoError(t, err)
	run, err := eng.Start(context.Background(), squaresParams())
	require.NoError(t, err)
	require.NoError(t, streamRun(cc.Renderer, run))
	closeStore()

	store, err := openStore(cc.Cfg.StatePath, cc.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	saved, err := store.GetRun(run.ID())
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, saved.Status)
	assert.Equal(t, int64(5), saved.Processed)

	records, err := store.GetRecords(run.ID())
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestStreamRun_FailedSetup(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)

	p := squaresParams()
	p.Expression = "x + w"

	run, err := engineFor(cc, nil).Start(context.Background(), p)
	require.NoError(t, err)

	err = streamRun(cc.Renderer, run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestStreamRun_Cancelled(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := squaresParams()
	p.NEnd = 1000
	run, err := engineFor(cc, nil).Start(ctx, p)
	require.NoError(t, err)

	require.NoError(t, streamRun(cc.Renderer, run))
	status, _ := run.Wait()
	assert.Equal(t, core.RunStatusCancelled, status)
	assert.Contains(t, testutil.StripANSI(tr.Output()), "search cancelled")
}

// collectEvents runs p to completion and returns every event.
func collectEvents(t *testing.T, cc *CommandContext, p engine.Params) (*engine.Run, []engine.Event) {
	t.Helper()
	run, err := engineFor(cc, nil).Start(context.Background(), p)
	require.NoError(t, err)

	var events []engine.Event
	for ev := range run.Events() {
		events = append(events, ev)
	}
	_, _ = run.Wait()
	return run, events
}

func TestSearchModel_Update(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)
	run, events := collectEvents(t, cc, squaresParams())

	var model tea.Model = newSearchModel(run, cc.Renderer)
	for _, ev := range events {
		var cmd tea.Cmd
		model, cmd = model.Update(eventMsg(ev))
		assert.NotNil(t, cmd, "each event schedules the next read")
	}

	model, cmd := model.Update(streamClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m := model.(searchModel)
	assert.True(t, m.done)
	assert.Equal(t, core.RunStatusCompleted, m.status)
	assert.Equal(t, int64(5), m.processed)
	assert.Equal(t, 5, m.solutions)
	assert.Len(t, m.records, 5)
	assert.InDelta(t, 1.0, m.fraction(), 1e-9)

	view := testutil.StripANSI(m.View())
	assert.Contains(t, view, "5/5 targets, 5 solutions")
	assert.Contains(t, view, "n = 4: (-2), (2)")
	assert.Contains(t, view, "search completed")
}

func TestSearchModel_RecentLinesBounded(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)

	p := squaresParams()
	p.NEnd = 20
	run, events := collectEvents(t, cc, p)

	var model tea.Model = newSearchModel(run, cc.Renderer)
	for _, ev := range events {
		model, _ = model.Update(eventMsg(ev))
	}

	m := model.(searchModel)
	assert.Len(t, m.recent, recentResults)
	assert.Len(t, m.records, 21)
}

func TestSearchModel_StopKey(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)
	run, _ := collectEvents(t, cc, squaresParams())

	model, cmd := newSearchModel(run, cc.Renderer).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd, "stopping waits for the stream to close")

	m := model.(searchModel)
	assert.True(t, m.stopping)
	assert.True(t, run.StopRequested())
	assert.Contains(t, m.View(), "stopping...")
}

func TestSearchModel_Report(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)
	run, events := collectEvents(t, cc, squaresParams())

	var model tea.Model = newSearchModel(run, cc.Renderer)
	for _, ev := range events {
		model, _ = model.Update(eventMsg(ev))
	}

	require.NoError(t, model.(searchModel).report(cc.Renderer))
	out := testutil.StripANSI(tr.Output())
	assert.Contains(t, out, "n = 1: (-1), (1)")
	assert.Contains(t, out, "search completed: 5/5 targets scanned")
}

func TestSearchModel_ReportFailure(t *testing.T) {
	tr := testutil.NewTestRendererText()
	cc := newTestContext(t, tr)

	p := squaresParams()
	p.Expression = "x +"
	run, events := collectEvents(t, cc, p)

	var model tea.Model = newSearchModel(run, cc.Renderer)
	for _, ev := range events {
		model, _ = model.Update(eventMsg(ev))
	}

	err := model.(searchModel).report(cc.Renderer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}
