package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/conv"
	"github.com/matheus3301/crmchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the table of contacts and groups.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	all     []conv.Summary
	visible []conv.Summary
	active  chat.Key
	filter  string
	now     func() time.Time
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
		now:   time.Now,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "s", Description: "Search"},
		{Key: "r", Description: "Refresh"},
		{Key: "q", Description: "Quit"},
	}
}

// Update replaces the rows. active is marked with a bullet.
func (cl *ConversationList) Update(list []conv.Summary, active chat.Key) {
	selected := cl.Selected()
	cl.all = list
	cl.active = active
	cl.render()
	cl.selectKey(selected)
}

// SetFilter narrows the rows to names containing filter.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// Filter returns the current filter text.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" UNREAD", 0},
		{" TYPE", 0},
		{" LAST", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	now := cl.now()
	for _, s := range cl.all {
		name := s.Name
		if name == "" {
			name = s.Key.ID
		}
		if cl.filter != "" && !containsFold(name, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, s)
		row := len(cl.visible)

		prefix := "  "
		switch {
		case s.Key == cl.active:
			prefix = "> "
		case s.Online:
			prefix = fmt.Sprintf("[%s]●[-] ", ui.ColorName(cl.theme.OnlineColor))
		}
		kind := "DM"
		if s.Key.Kind == chat.KindGroup {
			kind = fmt.Sprintf("GROUP %d", s.Members)
		}
		unread := ""
		if s.Unread > 0 {
			unread = fmt.Sprintf("%d", s.Unread)
		} else if s.HasUnread {
			unread = "•"
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+prefix+tview.Escape(sanitizeForTerminal(name))).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(unread).SetAlign(tview.AlignRight).SetTextColor(cl.theme.UnreadColor).SetAttributes(tcell.AttrBold))
		cl.SetCell(row, 2, tview.NewTableCell(" "+kind).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 3, tview.NewTableCell(" "+formatTime(s.LastActivity, now)).SetAlign(tview.AlignRight).SetTextColor(cl.theme.MutedColor))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.all), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.all)))
	}
}

// Selected returns the key of the highlighted row, or the zero key.
func (cl *ConversationList) Selected() chat.Key {
	row, _ := cl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cl.visible) {
		return chat.Key{}
	}
	return cl.visible[idx].Key
}

func (cl *ConversationList) selectKey(k chat.Key) {
	if k.IsZero() {
		return
	}
	for i, s := range cl.visible {
		if s.Key == k {
			cl.Select(i+1, 0)
			return
		}
	}
}
