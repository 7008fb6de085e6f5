package views

import (
	"fmt"

	"github.com/matheus3301/crmchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// LinkView shows an attachment URL as text and as a QR code so it can be
// opened on another device when the local download failed.
type LinkView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewLinkView creates a new link view.
func NewLinkView(theme *ui.Theme) *LinkView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Open Attachment ")
	tv.SetTitleColor(theme.TitleColor)

	return &LinkView{TextView: tv, theme: theme}
}

// Name implements Component.
func (lv *LinkView) Name() string { return "Link" }

// Hints implements Component.
func (lv *LinkView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

// Show renders url with the reason the download failed.
func (lv *LinkView) Show(url, reason string) {
	lv.SetText(fmt.Sprintf("\n[%s]Download failed: %s[-]\n\n%s\n\n%s",
		ui.ColorName(lv.theme.FlashWarnColor), tview.Escape(reason), tview.Escape(url), ui.RenderQR(url)))
}
