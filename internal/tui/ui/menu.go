package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Menu displays the key hints of the current view on one line.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints.
func (m *Menu) Update(hints []MenuHint) {
	m.SetText(HintLine(m.theme, hints))
}

// HintLine formats hints as "<key> desc" pairs.
func HintLine(theme *Theme, hints []MenuHint) string {
	keyColor := ColorName(theme.MenuKeyColor)
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", keyColor, tview.Escape(h.Key), h.Description))
	}
	return " " + strings.Join(parts, "  ")
}
