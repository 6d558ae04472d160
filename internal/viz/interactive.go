package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/neurosim/internal/config"
	"github.com/san-kum/neurosim/internal/experiment"
)

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

const (
	stateMenu = iota
	statePreset
	stateSim
)

const defaultPreset = "default"

type menu struct {
	state    int
	cursor   int
	reg      *experiment.Registry
	sims     []string
	selected string
	presets  []string
	err      error
	live     Model
}

// NewInteractiveApp lists every registered simulation, then its presets,
// and opens the live view on the chosen one.
func NewInteractiveApp(reg *experiment.Registry) tea.Model {
	return menu{
		state: stateMenu,
		reg:   reg,
		sims:  reg.ListSims(),
	}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	items := m.items()
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.state == statePreset {
			m.state, m.cursor = stateMenu, 0
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.state == stateMenu {
			m.selected = m.sims[m.cursor]
			m.presets = append([]string{defaultPreset}, config.ListPresets(m.selected)...)
			m.state, m.cursor = statePreset, 0
			return m, nil
		}
		return m.start(m.presets[m.cursor])
	}
	return m, nil
}

func (m menu) items() []string {
	if m.state == statePreset {
		return m.presets
	}
	return m.sims
}

func (m menu) start(preset string) (tea.Model, tea.Cmd) {
	cfg := config.GetPreset(m.selected, preset)
	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.Sim = m.selected
	}
	exp, err := experiment.New(m.reg, cfg, nil)
	if err != nil {
		m.err = err
		return m, nil
	}
	s := exp.Session()
	s.Start()
	m.live = NewModel(s, time.Duration(cfg.PeriodMs)*time.Millisecond)
	m.state = stateSim
	return m, m.live.Init()
}

func (m menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	var b strings.Builder
	title, sub := "NEUROSIM", "neural network simulations"
	if m.state == statePreset {
		title, sub = strings.ToUpper(m.selected), m.reg.Describe(m.selected)
	}
	b.WriteString("\n\n    " + menuTitle.Render(title) + "\n    " + menuSub.Render(sub) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")

	for i, name := range m.items() {
		desc := ""
		if m.state == stateMenu {
			desc = m.reg.Describe(name)
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-12s", name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", menuIdle.Render(fmt.Sprintf("%-12s", name)), menuIdle.Render(desc)))
		}
	}

	if m.err != nil {
		b.WriteString("\n    " + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" navigate  ") + menuKey.Render("enter") + menuIdle.Render(" select  ") + menuKey.Render("esc") + menuIdle.Render(" back  ") + menuKey.Render("q") + menuIdle.Render(" quit") + "\n")
	return b.String()
}

func RunInteractive(reg *experiment.Registry) error {
	_, err := tea.NewProgram(NewInteractiveApp(reg), tea.WithAltScreen()).Run()
	return err
}
