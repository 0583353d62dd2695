// Package browsertest provides an in-memory stand-in for a browser tab.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spigell/boss-responder/internal/browser"
	"github.com/spigell/boss-responder/internal/failure"
)

// Action is one recorded user-visible interaction.
type Action struct {
	Kind     string // "click" or "type"
	Selector string
	Text     string
}

// Page is a fake tab. Every selector is visible unless listed in Hidden;
// each gets a distinct box so clicks can be traced back to it.
type Page struct {
	mu sync.Mutex

	// Hidden selectors time out with failure.ElementNotFound.
	Hidden map[string]bool
	// HTML and Text back OuterHTML and TextContent lookups.
	HTML  map[string]string
	Text  map[string]string
	Texts map[string][]string

	// OnResolve runs before every visibility lookup; a non-nil error is returned as is.
	OnResolve func(selector string) error

	boxes    map[string]browser.Box
	actions  []Action
	resolved []string
	pointer  []browser.Box
}

// New returns an empty fake page.
func New() *Page {
	return &Page{
		Hidden: map[string]bool{},
		HTML:   map[string]string{},
		Text:   map[string]string{},
		Texts:  map[string][]string{},
		boxes:  map[string]browser.Box{},
	}
}

func (p *Page) boxFor(selector string) browser.Box {
	if b, ok := p.boxes[selector]; ok {
		return b
	}
	n := float64(len(p.boxes) + 1)
	b := browser.Box{X: 20 * n, Y: 15 * n, Width: 10, Height: 10}
	p.boxes[selector] = b
	return b
}

func (p *Page) WaitVisibleBox(_ context.Context, selector string, timeout time.Duration) (browser.Box, error) {
	if p.OnResolve != nil {
		if err := p.OnResolve(selector); err != nil {
			return browser.Box{}, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.resolved = append(p.resolved, selector)
	if p.Hidden[selector] {
		return browser.Box{}, failure.ElementNotFound("wait visible", selector, fmt.Errorf("not visible after %s", timeout))
	}
	return p.boxFor(selector), nil
}

func (p *Page) ClickAt(_ context.Context, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for sel, b := range p.boxes {
		cx, cy := b.Center()
		if cx == x && cy == y {
			p.actions = append(p.actions, Action{Kind: "click", Selector: sel})
			return nil
		}
	}
	p.actions = append(p.actions, Action{Kind: "click", Selector: fmt.Sprintf("(%.1f,%.1f)", x, y)})
	return nil
}

func (p *Page) TypeText(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, Action{Kind: "type", Text: text})
	return nil
}

func (p *Page) RenderPointer(_ context.Context, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pointer = append(p.pointer, browser.Box{X: x, Y: y})
	return nil
}

func (p *Page) TextContent(_ context.Context, selector string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.Text[selector]
	return v, ok, nil
}

func (p *Page) OuterHTML(_ context.Context, selector string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.HTML[selector]
	return v, ok, nil
}

func (p *Page) InnerTexts(_ context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Texts[selector]...), nil
}

// Actions returns the recorded clicks and typing in order.
func (p *Page) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Action(nil), p.actions...)
}

// Clicks returns the selectors clicked, in order.
func (p *Page) Clicks() []string {
	var out []string
	for _, a := range p.Actions() {
		if a.Kind == "click" {
			out = append(out, a.Selector)
		}
	}
	return out
}

// Typed returns every typed text, in order.
func (p *Page) Typed() []string {
	var out []string
	for _, a := range p.Actions() {
		if a.Kind == "type" {
			out = append(out, a.Text)
		}
	}
	return out
}

// Resolved returns every selector passed to WaitVisibleBox.
func (p *Page) Resolved() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resolved...)
}

// PointerFrames returns how many pointer renders happened.
func (p *Page) PointerFrames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pointer)
}

// Reset clears recorded actions but keeps page content.
func (p *Page) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = nil
	p.resolved = nil
	p.pointer = nil
}
