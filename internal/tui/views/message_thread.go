package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/transfer"
	"github.com/matheus3301/crmchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays the active conversation and its composer.
type MessageThread struct {
	*tview.Flex
	theme       *ui.Theme
	messages    *tview.TextView
	composer    *tview.InputField
	name        string
	self        string
	attachments []chat.Message
	onSubmit    func(text string)
	now         func() time.Time
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus, :attach <path>, :cancel, :download [n]) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSubmit == nil {
			return
		}
		text := composer.GetText()
		if strings.TrimSpace(text) == "" {
			return
		}
		composer.SetText("")
		mt.onSubmit(text)
	})

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.name != "" {
		return mt.name
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "Esc", Description: "Back"},
		{Key: "d", Description: "Download latest"},
	}
}

// SetSelf sets the identity whose messages render as "You".
func (mt *MessageThread) SetSelf(id string) { mt.self = id }

// SetName updates the conversation name in the title.
func (mt *MessageThread) SetName(name string) {
	mt.name = name
	mt.messages.SetTitle(fmt.Sprintf(" %s ", tview.Escape(name)))
}

// SetStaged shows the pending attachment in the composer label.
func (mt *MessageThread) SetStaged(p *transfer.PendingUpload) {
	if p == nil {
		mt.composer.SetLabel(" > ")
		return
	}
	mt.composer.SetLabel(fmt.Sprintf(" [%s %s] > ", p.Kind, p.Name))
}

// SetOnSubmit sets the callback for composer input.
func (mt *MessageThread) SetOnSubmit(fn func(text string)) {
	mt.onSubmit = fn
}

// Update re-renders the log, oldest first.
func (mt *MessageThread) Update(msgs []chat.Message) {
	mt.attachments = mt.attachments[:0]
	for _, m := range msgs {
		if m.HasAttachment() {
			mt.attachments = append(mt.attachments, m)
		}
	}
	mt.messages.SetText(renderThread(mt.theme, msgs, mt.self, mt.now()))
	mt.messages.ScrollToEnd()
}

// Attachment returns the n-th most recent attachment (1 = latest).
func (mt *MessageThread) Attachment(n int) (chat.Message, bool) {
	if n < 1 || n > len(mt.attachments) {
		return chat.Message{}, false
	}
	return mt.attachments[len(mt.attachments)-n], true
}

// Messages returns the log text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView { return mt.messages }

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField { return mt.composer }

func renderThread(theme *ui.Theme, msgs []chat.Message, self string, now time.Time) string {
	if len(msgs) == 0 {
		return fmt.Sprintf("\n  [%s]No messages yet.[-]", ui.ColorName(theme.MutedColor))
	}

	sep := ui.ColorName(theme.SeparatorColor)
	selfColor := ui.ColorName(theme.SelfColor)
	muted := ui.ColorName(theme.MutedColor)

	var sb strings.Builder
	for _, g := range chat.GroupByDay(msgs, now.Location()) {
		if !g.Day.IsZero() {
			fmt.Fprintf(&sb, "[%s]──── %s ────[-]\n\n", sep, dayLabel(g.Day, now))
		}
		for _, m := range g.Messages {
			sender := m.Sender.Name
			if sender == "" {
				sender = m.Sender.ID
			}
			color := "-"
			if m.FromSelf(self) {
				sender = "You"
				color = selfColor
			}
			ts := ""
			if !m.CreatedAt.IsZero() {
				ts = m.CreatedAt.In(now.Location()).Format("15:04")
			}
			fmt.Fprintf(&sb, "[%s::b]%s[-:-:-] [%s]%s[-]\n", color, tview.Escape(sanitizeForTerminal(sender)), muted, ts)
			if m.Body != "" {
				sb.WriteString(tview.Escape(sanitizeForTerminal(m.Body)))
				sb.WriteString("\n")
			}
			if m.HasAttachment() {
				name := m.FileName
				if name == "" {
					name = m.File
				}
				kind := transfer.Classify(name)
				fmt.Fprintf(&sb, "[%s]📎 %s (%s)[-]\n", muted, tview.Escape(name), kind)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
