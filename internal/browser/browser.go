// Package browser attaches to an already running Chrome over its remote-debugging
// endpoint and exposes the few page primitives the agent needs.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/failure"
)

const (
	defaultAttachTimeout = 10 * time.Second
	defaultViewportRatio = 0.8
	defaultPollInterval  = 100 * time.Millisecond
)

// Options configures Attach.
type Options struct {
	// Endpoint is the DevTools HTTP endpoint, e.g. http://127.0.0.1:9333.
	Endpoint      string
	AttachTimeout time.Duration
	// ViewportRatio scales the screen height to get the viewport height.
	ViewportRatio float64
	PollInterval  time.Duration
}

// Viewport is the emulated page size.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the viewport.
func (v Viewport) Center() (float64, float64) {
	return v.Width / 2, v.Height / 2
}

// Page is a single browser tab owned by one session for the lifetime of the process.
type Page struct {
	ctx          context.Context
	cancel       context.CancelFunc
	logger       *zap.Logger
	viewport     Viewport
	pollInterval time.Duration
}

// Attach connects to the running browser and opens a new tab. It never launches a browser.
// Every failure is reported as failure.AttachFailure.
func Attach(ctx context.Context, opts Options, logger *zap.Logger) (*Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, failure.AttachFailure(endpoint, errors.New("endpoint is not configured"))
	}
	if opts.AttachTimeout <= 0 {
		opts.AttachTimeout = defaultAttachTimeout
	}
	if opts.ViewportRatio <= 0 || opts.ViewportRatio > 1 {
		opts.ViewportRatio = defaultViewportRatio
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, endpoint)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)
	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	// The first Run allocates the tab and binds it to tabCtx, so it cannot carry its own deadline.
	var screen Viewport
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(tabCtx, chromedp.Evaluate(screenScript(opts.ViewportRatio), &screen))
	}()

	timer := time.NewTimer(opts.AttachTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			cancel()
			return nil, failure.AttachFailure(endpoint, err)
		}
	case <-timer.C:
		cancel()
		<-done
		return nil, failure.AttachFailure(endpoint, fmt.Errorf("no response within %s", opts.AttachTimeout))
	case <-ctx.Done():
		cancel()
		<-done
		return nil, failure.AttachFailure(endpoint, ctx.Err())
	}

	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(screen.Width), int64(screen.Height))); err != nil {
		cancel()
		return nil, failure.AttachFailure(endpoint, fmt.Errorf("set viewport: %w", err))
	}

	logger.Info("attached to the browser",
		zap.String("endpoint", endpoint),
		zap.Float64("viewport_width", screen.Width),
		zap.Float64("viewport_height", screen.Height),
	)

	return &Page{
		ctx:          tabCtx,
		cancel:       cancel,
		logger:       logger,
		viewport:     screen,
		pollInterval: opts.PollInterval,
	}, nil
}

// Close detaches from the tab. The browser itself keeps running.
func (p *Page) Close() {
	p.cancel()
}

// Viewport returns the size set at attach time.
func (p *Page) Viewport() Viewport {
	return p.viewport
}

// run executes actions on the tab while honouring the caller's context.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
