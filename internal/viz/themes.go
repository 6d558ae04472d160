package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme shared by the live view and SVG export.
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Node       lipgloss.Color
	Firing     lipgloss.Color
	Edge       lipgloss.Color
	Signal     lipgloss.Color
	Inhibitory lipgloss.Color
	Warning    lipgloss.Color
}

var (
	ThemeCortex = Theme{
		Name:       "cortex",
		Primary:    lipgloss.Color("#00ffff"),
		Secondary:  lipgloss.Color("#ff00ff"),
		Background: lipgloss.Color("#0a0a12"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666688"),
		Node:       lipgloss.Color("#4488ff"),
		Firing:     lipgloss.Color("#ffee55"),
		Edge:       lipgloss.Color("#334466"),
		Signal:     lipgloss.Color("#00ff88"),
		Inhibitory: lipgloss.Color("#ff4466"),
		Warning:    lipgloss.Color("#ffaa00"),
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Primary:    lipgloss.Color("#00ff00"),
		Secondary:  lipgloss.Color("#00cc00"),
		Background: lipgloss.Color("#001100"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#005500"),
		Node:       lipgloss.Color("#00aa00"),
		Firing:     lipgloss.Color("#ccffcc"),
		Edge:       lipgloss.Color("#004400"),
		Signal:     lipgloss.Color("#88ff88"),
		Inhibitory: lipgloss.Color("#ffff00"),
		Warning:    lipgloss.Color("#ffff00"),
	}

	ThemePaper = Theme{
		Name:       "paper",
		Primary:    lipgloss.Color("#222222"),
		Secondary:  lipgloss.Color("#0055aa"),
		Background: lipgloss.Color("#fafafa"),
		Text:       lipgloss.Color("#111111"),
		Muted:      lipgloss.Color("#888888"),
		Node:       lipgloss.Color("#3366aa"),
		Firing:     lipgloss.Color("#dd3300"),
		Edge:       lipgloss.Color("#bbbbbb"),
		Signal:     lipgloss.Color("#009966"),
		Inhibitory: lipgloss.Color("#aa0044"),
		Warning:    lipgloss.Color("#cc7700"),
	}

	CurrentTheme = ThemeCortex

	Themes = []Theme{
		ThemeCortex,
		ThemeRetroGreen,
		ThemePaper,
	}
)

// GetTheme returns a theme by name, falling back to cortex.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCortex
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme cycles to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
	SetTheme(names[0])
}
