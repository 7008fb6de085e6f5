package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/crmchat/internal/api"
	"github.com/matheus3301/crmchat/internal/status"
	"github.com/matheus3301/crmchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar shows the profile, link state, unread total and flash messages.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	state   string
	unread  int
	queued  bool
	flash   *ui.FlashMessage
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetStatus copies the fields shown from a daemon status.
func (sb *StatusBar) SetStatus(s *api.StatusResponse) {
	if s == nil {
		return
	}
	sb.state = s.State
	sb.unread = s.TotalUnread
	sb.queued = !s.Connected
	sb.render()
}

// SetFlash sets or clears the transient message.
func (sb *StatusBar) SetFlash(msg *ui.FlashMessage) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.SetText(sb.line())
}

func (sb *StatusBar) line() string {
	parts := []string{fmt.Sprintf(" [::b]%s[-:-:-]", tview.Escape(sb.profile))}

	state := sb.state
	if state == "" {
		state = "?"
	}
	color := ui.ColorName(sb.theme.FlashWarnColor)
	if state == string(status.Online) {
		color = ui.ColorName(sb.theme.OnlineColor)
	}
	parts = append(parts, fmt.Sprintf("[%s]%s[-]", color, state))
	if sb.queued {
		parts = append(parts, "texts will queue")
	}
	if sb.unread > 0 {
		parts = append(parts, fmt.Sprintf("[%s]%d unread[-]", ui.ColorName(sb.theme.UnreadColor), sb.unread))
	}
	if f := ui.Markup(sb.theme, sb.flash); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " | ")
}
