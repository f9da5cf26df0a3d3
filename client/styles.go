package client

import (
	"gerador/internal/proto"
	"gerador/session"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)
	buttonFocusStyle    = buttonStyle.Background(lipgloss.Color("212"))
	buttonDisabledStyle = buttonStyle.Foreground(lipgloss.Color("246")).Background(lipgloss.Color("237"))

	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
)

var statusDotStyle = map[session.StatusKind]lipgloss.Style{
	session.StatusSuccess:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	session.StatusError:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	session.StatusProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
}

var logKindStyle = map[proto.EventKind]lipgloss.Style{
	proto.EventLog:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	proto.EventInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	proto.EventSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	proto.EventError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

var tierStyle = map[proto.Tier]lipgloss.Style{
	proto.TierHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	proto.TierMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	proto.TierLow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
}
