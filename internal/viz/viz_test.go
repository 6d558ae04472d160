package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/neurosim/internal/brain"
	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/experiment"
	"github.com/san-kum/neurosim/internal/sim"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.PixelSize()
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)

	c.Set(0, 0)
	c.Set(7, 7)
	c.Set(-1, 3)
	c.Set(8, 0)
	assert.True(t, c.IsSet(0, 0))
	assert.True(t, c.IsSet(7, 7))
	assert.False(t, c.IsSet(1, 0))
	assert.Equal(t, 2, c.Lit())

	c.Clear()
	assert.Equal(t, 0, c.Lit())
	assert.Equal(t, 2, strings.Count(c.String(), "\n"))
}

func TestCanvasLines(t *testing.T) {
	c := NewCanvas(10, 1)
	c.DrawLine(0, 0, 19, 0)
	assert.Equal(t, 20, c.Lit())

	c.Clear()
	c.DrawDotted(0, 0, 19, 0)
	assert.Equal(t, 7, c.Lit())
}

func TestLayoutSharedAndSplit(t *testing.T) {
	shared := entity.Frame{
		Nodes:  []entity.Node{{ID: "fit0", Pos: entity.Vec2{X: 0, Y: 1}}, {ID: "fit1", Pos: entity.Vec2{X: 10, Y: 21}}},
		Points: []entity.Point{{X: 1, Y: 3}, {X: 9, Y: 19}},
	}
	g, p := Layout(shared, 100, 50)
	assert.Equal(t, g, p)
	assert.True(t, g.FlipY)
	_, y0 := g.Map(entity.Vec2{X: 0, Y: 1})
	_, y1 := g.Map(entity.Vec2{X: 10, Y: 21})
	assert.Greater(t, y0, y1, "larger y is drawn higher")

	split := entity.Frame{
		Nodes:  []entity.Node{{ID: "t0", Pos: entity.Vec2{X: 400, Y: 80}}},
		Points: []entity.Point{{X: 1, Y: 1}, {X: 9, Y: 9}},
	}
	g, p = Layout(split, 90, 40)
	assert.Equal(t, 30, g.X)
	assert.Equal(t, 0, p.X)
	assert.Equal(t, 30, p.W)
}

func TestRenderFrameDrawsSelection(t *testing.T) {
	f := entity.Frame{
		Nodes: []entity.Node{
			{ID: "a", Pos: entity.Vec2{X: 0, Y: 0}, Activity: 1, Max: 1},
			{ID: "b", Pos: entity.Vec2{X: 100, Y: 100}, Activity: 0, Max: 1},
		},
		Edges:   []entity.Edge{{ID: "a>b", Source: "a", Target: "b", Active: true}},
		Signals: []entity.Signal{{ID: "s", Source: "a", Target: "b", Progress: 0.5}},
	}
	c := NewCanvas(30, 10)
	RenderFrame(c, f)
	plain := c.Lit()
	assert.Positive(t, plain)

	f.Selected = "b"
	RenderFrame(c, f)
	assert.Greater(t, c.Lit(), plain)
}

func TestNodeLevel(t *testing.T) {
	tests := []struct {
		name string
		node entity.Node
		want float64
	}{
		{"above threshold", entity.Node{Activity: -50, Threshold: -55, Min: -70, Max: 40}, 1},
		{"at rest", entity.Node{Activity: -70, Threshold: -55, Min: -70, Max: 40}, 0},
		{"scaled", entity.Node{Activity: 0.2, Threshold: 0.3, Min: 0, Max: 1}, 0.2},
		{"no range", entity.Node{Activity: 5, Threshold: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NodeLevel(tt.node), 1e-12)
		})
	}
}

func TestGradientAndHex(t *testing.T) {
	r, g, b := parseHex("#102030")
	assert.Equal(t, []int{16, 32, 48}, []int{r, g, b})
	assert.Equal(t, "#ff0000", hexColor(300, -5, 0))
	assert.NotEmpty(t, GradientText("x", "#000000", "#ffffff"))
	assert.Empty(t, GradientText("", "#000000", "#ffffff"))
}

func TestThemes(t *testing.T) {
	defer SetTheme("cortex")
	assert.Equal(t, "cortex", GetTheme("missing").Name)
	NextTheme()
	assert.Equal(t, "retro", CurrentTheme.Name)
	NextTheme()
	NextTheme()
	assert.Equal(t, "cortex", CurrentTheme.Name)
}

func newBrainModel(t *testing.T) Model {
	t.Helper()
	s, err := sim.NewSession(brain.NewModel(), sim.DefaultConfig())
	require.NoError(t, err)
	return NewModel(s, time.Millisecond)
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestLiveModelTicksOnlyWhileRunning(t *testing.T) {
	m := newBrainModel(t)

	assert.Nil(t, m.Init(), "a paused view arms no timer")
	next, cmd := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	assert.Nil(t, cmd, "a paused view is not rescheduled")
	assert.Equal(t, 0, m.Frame().Iteration)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	require.True(t, m.Session().Running())
	assert.NotNil(t, cmd, "resuming arms the timer")
	for i := 0; i < 5; i++ {
		next, cmd = m.Update(TickMsg(time.Now()))
		m = next.(Model)
		assert.NotNil(t, cmd, "a running view keeps ticking")
	}
	assert.Equal(t, 5, m.Frame().Iteration)
	assert.Len(t, m.history["mean_activity"], 5)

	m = press(m, " ")
	require.False(t, m.Session().Running())
	next, cmd = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	assert.Nil(t, cmd, "pausing lets the pending timer lapse")
	assert.Equal(t, 5, m.Frame().Iteration)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	assert.NotNil(t, cmd, "resuming after the timer lapsed arms it again")

	m = press(m, "r")
	assert.Equal(t, 0, m.Frame().Iteration)
	assert.False(t, m.Session().Running())
	assert.Empty(t, m.history)
}

func TestLiveModelControls(t *testing.T) {
	m := newBrainModel(t)

	m = press(m, "+")
	assert.InDelta(t, 1.25, m.Session().Config().Speed, 1e-12)
	m = press(m, "-")
	assert.InDelta(t, 1.0, m.Session().Config().Speed, 1e-12)

	m = press(m, "]")
	assert.InDelta(t, 0.6, m.Session().Config().Intensity, 1e-12)
	for i := 0; i < 10; i++ {
		m = press(m, "]")
	}
	assert.Equal(t, 1.0, m.Session().Config().Intensity)

	m = press(m, "tab")
	require.NotNil(t, m.detail)
	assert.Equal(t, m.Frame().Nodes[0].ID, m.detail.ID)
	assert.Equal(t, m.detail.ID, m.Frame().Selected)

	view := m.View()
	assert.Contains(t, view, "iteration")
	assert.Contains(t, view, m.detail.ID)
}

func TestInteractiveMenu(t *testing.T) {
	app := NewInteractiveApp(experiment.NewRegistry())
	key := func(m tea.Model, k tea.KeyMsg) tea.Model {
		next, _ := m.Update(k)
		return next
	}

	app = key(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, app.View(), "default")

	app = key(app, tea.KeyMsg{Type: tea.KeyEnter})
	mm := app.(menu)
	require.Equal(t, stateSim, mm.state)
	assert.Equal(t, "ann", mm.live.Frame().Sim)
	assert.True(t, mm.live.Session().Running())
}
