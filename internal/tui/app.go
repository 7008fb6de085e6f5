// Package tui is the terminal client of the chat daemon.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/crmchat/internal/api"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/tui/keys"
	"github.com/matheus3301/crmchat/internal/tui/model"
	"github.com/matheus3301/crmchat/internal/tui/ui"
	"github.com/matheus3301/crmchat/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageConversations = "conversations"
	pageChat          = "chat"
	pageSearch        = "search"
	pageLink          = "link"

	requestTimeout = 15 * time.Second
	uploadTimeout  = 5 * time.Minute
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	pages    *ui.Pages
	theme    *ui.Theme
	vm       *model.ViewModel
	daemon   *api.Client
	registry *keys.Registry
	flash    *ui.FlashModel

	statusBar *views.StatusBar
	menu      *ui.Menu
	list      *views.ConversationList
	filter    *tview.InputField
	thread    *views.MessageThread
	search    *views.SearchView
	link      *views.LinkView

	components map[string]ui.Component

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *api.Client, profileName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     ui.NewPages(),
		theme:     theme,
		vm:        model.NewViewModel(c),
		daemon:    c,
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		statusBar: views.NewStatusBar(theme),
		menu:      ui.NewMenu(theme),
		list:      views.NewConversationList(theme),
		filter:    tview.NewInputField().SetLabel(" Filter: ").SetFieldWidth(0),
		thread:    views.NewMessageThread(theme),
		search:    views.NewSearchView(theme),
		link:      views.NewLinkView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.components = map[string]ui.Component{
		pageConversations: a.list,
		pageChat:          a.thread,
		pageSearch:        a.search,
		pageLink:          a.link,
	}

	a.statusBar.SetProfile(profileName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "quit",
		Handler: a.app.Stop,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 's', Description: "search",
		Handler: a.showSearch,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Description: "refresh",
		Handler: func() { go a.refresh() },
	})
	a.registry.AddPage(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "filter",
		Handler: func() { a.app.SetFocus(a.filter) },
	})
	a.registry.AddPage(pageChat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Description: "compose",
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddPage(pageChat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd', Description: "download latest",
		Handler: func() { a.download(1) },
	})
	a.registry.AddPage(pageSearch, &keys.Action{
		Key: tcell.KeyTab, Description: "results",
		Handler: func() { a.app.SetFocus(a.search.Results()) },
	})
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(int, int) {
		if k := a.list.Selected(); !k.IsZero() {
			a.openConversation(k)
		}
	})

	a.filter.SetChangedFunc(a.list.SetFilter)
	a.filter.SetDoneFunc(func(tcell.Key) { a.app.SetFocus(a.list) })

	a.thread.SetOnSubmit(a.submit)

	a.search.SetOnQuery(func(query string) {
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
			defer cancel()
			results, err := a.vm.Search(ctx, query)
			if err != nil {
				a.fail(err)
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.search.Update(results)
				a.app.SetFocus(a.search.Results())
			})
		}()
	})
	a.search.SetOnOpen(a.openConversation)

	a.pages.SetOnChange(func(top string) {
		if c, ok := a.components[top]; ok {
			a.menu.Update(c.Hints())
		}
	})
}

func (a *App) setupLayout() {
	listPage := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.list, 0, 1, true).
		AddItem(a.filter, 1, 0, false)

	a.pages.AddPage(pageConversations, listPage, true, false)
	a.pages.AddPage(pageChat, a.thread, true, false)
	a.pages.AddPage(pageSearch, a.search, true, false)
	a.pages.AddPage(pageLink, a.link, true, false)
	a.pages.Push(pageConversations)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		page := a.pages.Current()

		if event.Key() == tcell.KeyEscape {
			if a.app.GetFocus() == a.thread.Composer() {
				a.app.SetFocus(a.thread.Messages())
				return nil
			}
			if a.pages.Pop() {
				a.focusPage()
				return nil
			}
		}

		// Text inputs own every other key.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}

		if a.registry.HandleEvent(page, event) {
			return nil
		}
		return event
	})
}

func (a *App) focusPage() {
	switch a.pages.Current() {
	case pageConversations:
		a.app.SetFocus(a.list)
	case pageChat:
		a.app.SetFocus(a.thread.Messages())
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	}
}

func (a *App) openConversation(k chat.Key) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		if err := a.vm.Open(ctx, k); err != nil {
			a.fail(err)
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.thread.SetName(a.vm.ActiveName())
			a.thread.SetStaged(nil)
			a.thread.Update(a.vm.Messages())
			a.pages.Push(pageChat)
			a.app.SetFocus(a.thread.Composer())
		})
	}()
}

func (a *App) showSearch() {
	a.pages.Push(pageSearch)
	a.app.SetFocus(a.search.Input())
}

// submit handles one composer line: a ':' command or a message.
func (a *App) submit(text string) {
	if cmd, ok := ParseCommand(text); ok {
		a.runCommand(cmd)
		return
	}
	body := Literal(text)

	if a.vm.Staged() != nil {
		go a.sendStaged(body)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		queued, err := a.vm.SendText(ctx, body)
		if err != nil {
			a.fail(err)
			return
		}
		if queued {
			a.flash.Warn("Offline: message queued")
			a.redrawStatus()
		}
	}()
}

// sendStaged uploads the staged attachment with caption.
func (a *App) sendStaged(caption string) {
	ctx, cancel := context.WithTimeout(a.ctx, uploadTimeout)
	defer cancel()
	a.flash.Info("Uploading...")
	a.redrawStatus()
	resp, err := a.vm.SendStaged(ctx, caption)
	if err != nil {
		a.fail(err)
		return
	}
	a.flash.Info(fmt.Sprintf("Sent %s (%s)", resp.Name, resp.Kind))
	a.app.QueueUpdateDraw(func() {
		a.thread.SetStaged(nil)
		a.statusBar.SetFlash(a.flash.Current())
	})
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "attach", "a":
		if cmd.Args == "" {
			a.flash.Warn("usage: :attach <path>")
			a.statusBar.SetFlash(a.flash.Current())
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
			defer cancel()
			p, err := a.vm.Stage(ctx, expandHome(cmd.Args))
			if err != nil {
				a.fail(err)
				return
			}
			a.flash.Info(fmt.Sprintf("Staged %s: type a caption, or :send", p.Name))
			a.app.QueueUpdateDraw(func() {
				a.thread.SetStaged(p)
				a.statusBar.SetFlash(a.flash.Current())
			})
		}()
	case "send":
		go a.sendStaged(cmd.Args)
	case "cancel":
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
			defer cancel()
			had, err := a.vm.CancelStage(ctx)
			if err != nil {
				a.fail(err)
				return
			}
			if had {
				a.flash.Info("Attachment discarded")
			}
			a.app.QueueUpdateDraw(func() {
				a.thread.SetStaged(nil)
				a.statusBar.SetFlash(a.flash.Current())
			})
		}()
	case "download", "d":
		n, ok := cmd.Index()
		if !ok {
			a.flash.Warn("usage: :download [n]")
			a.statusBar.SetFlash(a.flash.Current())
			return
		}
		a.download(n)
	case "search":
		a.showSearch()
		a.search.Input().SetText(cmd.Args)
	case "refresh":
		go a.refresh()
	default:
		a.flash.Warn("unknown command :" + cmd.Name)
		a.statusBar.SetFlash(a.flash.Current())
	}
}

// download fetches the n-th most recent attachment of the thread.
func (a *App) download(n int) {
	m, ok := a.thread.Attachment(n)
	if !ok {
		a.flash.Warn("No such attachment")
		a.statusBar.SetFlash(a.flash.Current())
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, uploadTimeout)
		defer cancel()
		res, err := a.vm.Download(ctx, m.File, m.FileName)
		if err != nil {
			a.fail(err)
			return
		}
		if res.Fallback {
			a.app.QueueUpdateDraw(func() {
				a.link.Show(res.URL, res.Reason)
				a.pages.Push(pageLink)
				a.app.SetFocus(a.link)
			})
			return
		}
		a.flash.Info("Saved " + res.Path)
		a.redrawStatus()
	}()
}

func (a *App) refresh() {
	ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
	defer cancel()
	resp, err := a.daemon.Refresh(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.flash.Info(fmt.Sprintf("Refreshed %d contacts, %d groups", resp.Contacts, resp.Groups))
	a.reload(model.RefreshConversations | model.RefreshStatus)
}

// reload refetches what r names and redraws.
func (a *App) reload(r model.Refresh) {
	ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
	defer cancel()
	if r.Has(model.RefreshStatus) {
		_ = a.vm.LoadStatus(ctx)
	}
	if r.Has(model.RefreshConversations) {
		_ = a.vm.LoadConversations(ctx)
	}
	if r.Has(model.RefreshThread) {
		_ = a.vm.LoadThread(ctx)
	}
	a.app.QueueUpdateDraw(func() {
		if st := a.vm.Status(); st != nil {
			a.thread.SetSelf(st.UserID)
			a.statusBar.SetStatus(st)
		}
		if r.Has(model.RefreshConversations) {
			a.list.Update(a.vm.Conversations(), a.vm.Active())
		}
		if r.Has(model.RefreshThread) && a.pages.Current() == pageChat {
			a.thread.Update(a.vm.Messages())
		}
		a.statusBar.SetFlash(a.flash.Current())
	})
}

func (a *App) redrawStatus() {
	a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(a.flash.Current()) })
}

func (a *App) fail(err error) {
	a.flash.Err(err)
	a.redrawStatus()
}

// watch follows the daemon event stream, reconnecting until the app stops.
func (a *App) watch() {
	for a.ctx.Err() == nil {
		stream, err := a.daemon.Watch(a.ctx, "")
		if err == nil {
			for {
				evt, err := stream.Recv()
				if err != nil {
					break
				}
				r := model.Route(evt, a.vm.Active())
				if msg := model.Problem(evt); msg != "" {
					a.flash.Warn(msg)
					r |= model.RefreshStatus
				}
				if r != 0 {
					a.reload(r)
				}
			}
		}
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(2 * time.Second):
			a.flash.Warn("Event stream lost, retrying")
			a.redrawStatus()
		}
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	go func() {
		a.reload(model.RefreshStatus | model.RefreshConversations | model.RefreshThread)
		go a.watch()
		a.startRefreshLoop()
	}()

	defer a.cancel()
	return a.app.Run()
}

// startRefreshLoop polls status so flash expiry and link state stay
// current between events.
func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.reload(model.RefreshStatus)
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
