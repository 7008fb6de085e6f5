package ui

import "github.com/rivo/tview"

// Pages is a stack of named pages over tview.Pages. The first page pushed
// is the root and is never popped.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(top string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange sets a callback fired with the new top page.
func (p *Pages) SetOnChange(fn func(top string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the current top is a no-op;
// pushing a page already lower in the stack moves it to the top.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	for i, n := range p.stack {
		if n == name {
			p.stack = append(p.stack[:i], p.stack[i+1:]...)
			break
		}
	}
	p.stack = append(p.stack, name)
	p.SwitchToPage(name)
	p.notify()
}

// Pop returns to the previous page. It returns false at the root.
func (p *Pages) Pop() bool {
	if len(p.stack) <= 1 {
		return false
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.SwitchToPage(p.Current())
	p.notify()
	return true
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Reset drops everything above the root.
func (p *Pages) Reset() {
	if len(p.stack) <= 1 {
		return
	}
	p.stack = p.stack[:1]
	p.SwitchToPage(p.stack[0])
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Current())
	}
}
