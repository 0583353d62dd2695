package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/spigell/boss-responder/internal/failure"
)

// Box is an element's bounding box in viewport coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

type lookup struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

// Navigate loads url in the tab and waits for the body.
func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// WaitVisibleBox polls until selector matches a visible element and returns its box.
// A timeout yields failure.ElementNotFound.
func (p *Page) WaitVisibleBox(ctx context.Context, selector string, timeout time.Duration) (Box, error) {
	var box Box
	err := p.run(ctx, chromedp.PollFunction(visibleBoxFunction, &box,
		chromedp.WithPollingArgs(selector),
		chromedp.WithPollingInterval(p.pollInterval),
		chromedp.WithPollingTimeout(timeout),
	))
	if err != nil {
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return Box{}, failure.ElementNotFound("wait visible", selector, fmt.Errorf("not visible after %s", timeout))
		}
		return Box{}, fmt.Errorf("wait for %q: %w", selector, err)
	}
	return box, nil
}

// ClickAt presses and releases the left button at (x, y).
func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	return p.run(ctx,
		input.DispatchMouseEvent(input.MouseMoved, x, y),
		input.DispatchMouseEvent(input.MousePressed, x, y).WithButton(input.Left).WithButtons(1).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseReleased, x, y).WithButton(input.Left).WithClickCount(1),
	)
}

// TypeText sends text to the focused element as key events.
func (p *Page) TypeText(ctx context.Context, text string) error {
	return p.run(ctx, chromedp.KeyEvent(text))
}

// RenderPointer moves the visible pointer indicator and the real mouse to (x, y).
func (p *Page) RenderPointer(ctx context.Context, x, y float64) error {
	var drawn bool
	return p.run(ctx,
		chromedp.Evaluate(pointerScript(x, y), &drawn),
		input.DispatchMouseEvent(input.MouseMoved, x, y),
	)
}

// TextContent returns the textContent of the first match. found is false when nothing matches.
func (p *Page) TextContent(ctx context.Context, selector string) (string, bool, error) {
	var res lookup
	if err := p.run(ctx, chromedp.Evaluate(textContentScript(selector), &res)); err != nil {
		return "", false, fmt.Errorf("read text of %q: %w", selector, err)
	}
	return res.Value, res.Found, nil
}

// OuterHTML returns the markup of the first match. found is false when nothing matches.
func (p *Page) OuterHTML(ctx context.Context, selector string) (string, bool, error) {
	var res lookup
	if err := p.run(ctx, chromedp.Evaluate(outerHTMLScript(selector), &res)); err != nil {
		return "", false, fmt.Errorf("read markup of %q: %w", selector, err)
	}
	return res.Value, res.Found, nil
}

// InnerTexts returns the rendered text of every match.
func (p *Page) InnerTexts(ctx context.Context, selector string) ([]string, error) {
	var res []string
	if err := p.run(ctx, chromedp.Evaluate(innerTextsScript(selector), &res)); err != nil {
		return nil, fmt.Errorf("read texts of %q: %w", selector, err)
	}
	return res, nil
}
