package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/neurosim/internal/entity"
	"github.com/san-kum/neurosim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	defaultPeriod   = 50 * time.Millisecond
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

type TickMsg time.Time

// Model is the live view of one session. Update is the session's only
// writer: ticks and key presses are applied in the order bubbletea delivers
// them.
type Model struct {
	session   *sim.Session
	period    time.Duration
	canvas    *Canvas
	frame     entity.Frame
	history   map[string][]float64
	chartKey  string
	paramKeys []string
	paramIdx  int
	entityIdx int
	detail    *sim.Detail
	status    string
	showHelp  bool
	frames    int
	ticking   bool
}

func NewModel(s *sim.Session, period time.Duration) Model {
	if period <= 0 {
		period = defaultPeriod
	}
	m := Model{
		session:   s,
		period:    period,
		canvas:    NewCanvas(width, height),
		history:   make(map[string][]float64),
		paramKeys: sim.ParamNames(s.Params()),
		entityIdx: -1,
		ticking:   s.Running(),
	}
	m.refresh(false)
	return m
}

func (m Model) Session() *sim.Session { return m.session }
func (m Model) Frame() entity.Frame   { return m.frame }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Init arms the tick timer only for a running session. A paused view
// sleeps until it is resumed.
func (m Model) Init() tea.Cmd {
	if !m.ticking {
		return nil
	}
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		w := max(20, msg.Width-56)
		h := max(8, msg.Height-4)
		m.canvas = NewCanvas(w, h)
		RenderFrame(m.canvas, m.frame)
	case TickMsg:
		m.frames++
		if m.session.Tick() {
			m.refresh(true)
		} else {
			m.frame.Running = m.session.Running()
		}
		if !m.session.Running() {
			m.ticking = false
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	s := m.session
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		s.SetRunning(!s.Running())
		if !s.Running() && m.atEnd() {
			m.status = "iteration ceiling reached, press r to reset"
		}
		if s.Running() && !m.ticking {
			m.ticking = true
			m.refresh(false)
			return m, m.tick()
		}
	case "r":
		s.Reset()
		m.history = make(map[string][]float64)
		m.detail = nil
		m.entityIdx = -1
		m.paramKeys = sim.ParamNames(s.Params())
		m.refresh(false)
		return m, nil
	case "+", "=":
		m.report(s.SetSpeed(s.Config().Speed * 1.25))
	case "-", "_":
		m.report(s.SetSpeed(s.Config().Speed / 1.25))
	case "]":
		m.report(s.SetIntensity(s.Config().Intensity + 0.1))
	case "[":
		m.report(s.SetIntensity(s.Config().Intensity - 0.1))
	case "tab":
		m.cycleEntity()
	case "p":
		if len(m.paramKeys) > 0 {
			m.paramIdx = (m.paramIdx + 1) % len(m.paramKeys)
		}
	case "up", "k":
		m.adjustParam(1.1)
	case "down", "j":
		m.adjustParam(0.9)
	case "m":
		m.cycleChart()
	case "t":
		NextTheme()
	case "?":
		m.showHelp = !m.showHelp
	}
	m.refresh(false)
	return m, nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) atEnd() bool {
	limit := m.session.Config().MaxIterations
	if limit > 0 && m.session.Iteration() >= limit {
		return true
	}
	f, ok := m.session.Simulation().(sim.Finisher)
	return ok && f.Finished()
}

func (m *Model) cycleEntity() {
	if len(m.frame.Nodes) == 0 {
		return
	}
	m.entityIdx = (m.entityIdx + 1) % len(m.frame.Nodes)
	d, err := m.session.SelectEntity(m.frame.Nodes[m.entityIdx].ID)
	if err != nil {
		m.detail = nil
		m.report(err)
		return
	}
	m.detail = &d
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.paramIdx]
	val := m.session.Params()[key]
	next := val * factor
	if val == 0 && factor > 1 {
		next = 0.1
	}
	m.report(m.session.SetParameter(key, next))
}

func (m *Model) cycleChart() {
	keys := m.frame.MetricNames()
	if len(keys) == 0 {
		return
	}
	i := sort.SearchStrings(keys, m.chartKey)
	if i < len(keys) && keys[i] == m.chartKey {
		i++
	}
	m.chartKey = keys[i%len(keys)]
}

// refresh takes a new frame and, after a tick, appends its metrics to the
// history.
func (m *Model) refresh(record bool) {
	m.frame = m.session.Frame()
	if record {
		for k, v := range m.frame.Metrics {
			h := append(m.history[k], v)
			if len(h) > historyCapacity {
				h = h[len(h)-historyCapacity:]
			}
			m.history[k] = h
		}
	}
	if m.chartKey == "" {
		if names := m.frame.MetricNames(); len(names) > 0 {
			m.chartKey = names[0]
		}
	}
	if m.detail != nil {
		if d, err := m.session.SelectEntity(m.detail.ID); err == nil {
			m.detail = &d
		}
	}
	RenderFrame(m.canvas, m.frame)
}

func (m Model) statusLine() string {
	switch {
	case m.session.Running():
		return StatusRunning.Render(Spinner(m.frames) + " RUNNING")
	case m.atEnd():
		return StatusStopped.Render("■ STOPPED")
	}
	return StatusPaused.Render("‖ PAUSED")
}

func (m Model) View() string {
	t := CurrentTheme
	cfg := m.session.Config()

	canvasView := canvasStyle.Foreground(t.Node).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.frame.Sim), t.Primary, t.Secondary) + "  " + m.statusLine() + "\n\n")
	s.WriteString(MetricLabel.Render("iteration") + MetricValue.Render(fmt.Sprintf("%d", m.frame.Iteration)) + "\n")
	s.WriteString(MetricLabel.Render("time") + MetricValue.Render(fmt.Sprintf("%.1f", m.frame.Time)) + "\n")
	s.WriteString(MetricLabel.Render("speed") + MetricValue.Render(fmt.Sprintf("%.2fx", cfg.Speed)) + "\n")
	s.WriteString(MetricLabel.Render("intensity") + ProgressBar(cfg.Intensity, 12) + fmt.Sprintf(" %.1f", cfg.Intensity) + "\n")
	s.WriteString(Separator(40) + "\n")

	for _, k := range m.frame.MetricNames() {
		label := MetricLabel.Render(k)
		if k == m.chartKey {
			label = Selected.Width(16).Render(k)
		}
		s.WriteString(label + MetricValue.Render(fmt.Sprintf("%10.3f ", m.frame.Metrics[k])) + Sparkline(m.history[k], 12) + "\n")
	}

	if h := m.history[m.chartKey]; len(h) > 1 {
		chart := asciigraph.Plot(h, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption(m.chartKey))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.detail != nil {
		s.WriteString(Separator(40) + "\n")
		s.WriteString(Selected.Render(fmt.Sprintf("%s (%s)", m.detail.ID, m.detail.Kind)) + "\n")
		for _, k := range sortedKeys(m.detail.Labels) {
			s.WriteString(MetricLabel.Render(k) + m.detail.Labels[k] + "\n")
		}
		for _, k := range sim.ParamNames(m.detail.Values) {
			s.WriteString(MetricLabel.Render(k) + MetricValue.Render(fmt.Sprintf("%.3f", m.detail.Values[k])) + "\n")
		}
	}

	if len(m.paramKeys) > 0 {
		s.WriteString(Separator(40) + "\n")
		params := m.session.Params()
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("%-16s %.3f", k, params[k])
			if i == m.paramIdx {
				s.WriteString(Selected.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + Subtle.Render(line) + "\n")
			}
		}
	}

	if m.status != "" {
		s.WriteString("\n" + errStyle.Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:run R:reset +/-:speed [ ]:intensity\nTAB:select P:param ↑↓:tune M:chart T:theme ?:help Q:quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return KeyHint.Render(helpText) + "\n\n" + mainView
	}
	return mainView
}

const helpText = `Space    pause / resume
R        reset (rebuild from seed)
+ / -    speed up / slow down
[ / ]    lower / raise intensity
Tab      select next entity
P        next parameter
Up / Dn  tune parameter by 10%
M        chart next metric
T        cycle theme
Q        quit`

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Run starts the live view for s and blocks until the user quits.
func Run(s *sim.Session, period time.Duration) error {
	s.Start()
	_, err := tea.NewProgram(NewModel(s, period), tea.WithAltScreen()).Run()
	return err
}
