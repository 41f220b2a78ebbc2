package tui

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
	colorPurple = lipgloss.AdaptiveColor{Light: "91", Dark: "141"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "235", Dark: "236"})

	focusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorWhite)

	unfocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim)
)

// Log table styles.
var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorDim)

	timestampStyle = lipgloss.NewStyle().Foreground(colorCyan)
	triggerStyle   = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	contactStyle   = lipgloss.NewStyle().Foreground(colorPurple)
	previewStyle   = lipgloss.NewStyle().Foreground(colorDim)
	errorRowStyle  = lipgloss.NewStyle().Foreground(colorRed)

	selectedItemStyle = lipgloss.NewStyle().
				Background(lipgloss.AdaptiveColor{Light: "254", Dark: "237"})

	loadMoreStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// JSON tree styles.
var (
	treeKeyStyle    = lipgloss.NewStyle().Foreground(colorCyan)
	treeStringStyle = lipgloss.NewStyle().Foreground(colorGreen)
	treeScalarStyle = lipgloss.NewStyle().Foreground(colorYellow)
	treeNullStyle   = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	treeMarkerStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// Status badge styles.
var (
	badgeIdleStyle    = lipgloss.NewStyle().Foreground(colorDim)
	badgeRunningStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	badgeErrorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// Overlay styles.
var (
	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWhite).
			Padding(1, 2)

	overlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWhite).
				MarginBottom(1)

	overlayDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// Key hint styles for status bar.
var (
	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	hintStyle = lipgloss.NewStyle().Foreground(colorDim)
)
