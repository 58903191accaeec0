package feed

import "github.com/charmbracelet/lipgloss"

var (
	rowStyle = lipgloss.NewStyle().MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#224", Dark: "#DDE"})

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#0AF")).
				Background(lipgloss.Color("#224"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#667", Dark: "#889"}).
			PaddingLeft(2)

	detailStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#334455"))

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0AF")).
			PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F55"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0AF", Dark: "#0AF"})

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#889")).
			Padding(1, 2)
)
