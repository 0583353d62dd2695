// Package interaction composes pointer motion with clicks and typing, paced like a person.
package interaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/browser"
	"github.com/spigell/boss-responder/internal/motion"
	"github.com/spigell/boss-responder/internal/utils"
)

// Page is the part of the browser tab the controller drives.
type Page interface {
	WaitVisibleBox(ctx context.Context, selector string, timeout time.Duration) (browser.Box, error)
	ClickAt(ctx context.Context, x, y float64) error
	TypeText(ctx context.Context, text string) error
}

// Mover animates the pointer to a point and records the new cursor position.
type Mover interface {
	Move(ctx context.Context, target motion.Point) error
}

// Config holds the controller's fixed delays and the message editor selectors.
type Config struct {
	ElementTimeout time.Duration
	MoveSettle     time.Duration
	ClickSettle    time.Duration
	TypeSettle     time.Duration

	InputSelector  string
	SubmitSelector string
}

// DefaultConfig returns the stock pacing and the chat editor selectors.
func DefaultConfig() Config {
	return Config{
		ElementTimeout: 30 * time.Second,
		MoveSettle:     500 * time.Millisecond,
		ClickSettle:    100 * time.Millisecond,
		TypeSettle:     500 * time.Millisecond,
		InputSelector:  ".boss-chat-editor-input",
		SubmitSelector: ".conversation-editor .submit-content .submit",
	}
}

// Controller performs humanlike actions on one page. Nothing is retried here.
type Controller struct {
	page   Page
	mover  Mover
	clock  utils.Clock
	cfg    Config
	logger *zap.Logger
}

// New creates a Controller.
func New(page Page, mover Mover, clock utils.Clock, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		page:   page,
		mover:  mover,
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}
}

// ResolveTargetCenter waits for selector to become visible and returns its center.
func (c *Controller) ResolveTargetCenter(ctx context.Context, selector string) (motion.Point, error) {
	box, err := c.page.WaitVisibleBox(ctx, selector, c.cfg.ElementTimeout)
	if err != nil {
		return motion.Point{}, fmt.Errorf("resolve %q: %w", selector, err)
	}
	x, y := box.Center()
	return motion.Point{X: x, Y: y}, nil
}

// MoveTo glides the pointer to the center of selector and returns that center.
func (c *Controller) MoveTo(ctx context.Context, selector string) (motion.Point, error) {
	center, err := c.ResolveTargetCenter(ctx, selector)
	if err != nil {
		return motion.Point{}, err
	}

	if err := c.clock.Sleep(ctx, c.cfg.MoveSettle); err != nil {
		return motion.Point{}, err
	}

	if err := c.mover.Move(ctx, center); err != nil {
		return motion.Point{}, fmt.Errorf("move to %q: %w", selector, err)
	}
	return center, nil
}

// MoveAndClick moves to selector and clicks the center resolved before the movement.
// The center is not resolved again after the animation.
func (c *Controller) MoveAndClick(ctx context.Context, selector string) error {
	center, err := c.MoveTo(ctx, selector)
	if err != nil {
		return err
	}

	if err := c.clock.Sleep(ctx, c.cfg.ClickSettle); err != nil {
		return err
	}

	if err := c.page.ClickAt(ctx, center.X, center.Y); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}

	c.logger.Debug("clicked", zap.String("selector", selector), zap.Float64("x", center.X), zap.Float64("y", center.Y))
	return nil
}

// Click clicks the center of selector without moving the pointer first.
func (c *Controller) Click(ctx context.Context, selector string) error {
	center, err := c.ResolveTargetCenter(ctx, selector)
	if err != nil {
		return err
	}
	if err := c.page.ClickAt(ctx, center.X, center.Y); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// SendMessage focuses the chat input, types text and submits it.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if err := c.MoveAndClick(ctx, c.cfg.InputSelector); err != nil {
		return fmt.Errorf("focus message input: %w", err)
	}

	if err := c.clock.Sleep(ctx, c.cfg.TypeSettle); err != nil {
		return err
	}

	if err := c.page.TypeText(ctx, text); err != nil {
		return fmt.Errorf("type message: %w", err)
	}

	if err := c.clock.Sleep(ctx, c.cfg.TypeSettle); err != nil {
		return err
	}

	if err := c.MoveAndClick(ctx, c.cfg.SubmitSelector); err != nil {
		return fmt.Errorf("submit message: %w", err)
	}

	c.logger.Info("message sent", zap.String("text", utils.TruncateForLog(text, 50)))
	return nil
}
