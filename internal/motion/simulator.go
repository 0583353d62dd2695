package motion

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/utils"
)

// ErrInFlight is returned when a second movement starts before the first one completed.
var ErrInFlight = errors.New("motion: a trajectory is already in progress")

// Renderer draws the pointer indicator at a position.
type Renderer interface {
	RenderPointer(ctx context.Context, x, y float64) error
}

// Config tunes the simulator.
type Config struct {
	// FrameInterval is the pause between two rendered samples.
	FrameInterval time.Duration
	// MinDuration and MaxDuration bound the randomized movement time, [Min, Max).
	MinDuration time.Duration
	MaxDuration time.Duration
	Easing      Easing
}

// DefaultConfig mirrors a quick but unhurried hand.
func DefaultConfig() Config {
	return Config{
		FrameInterval: 10 * time.Millisecond,
		MinDuration:   100 * time.Millisecond,
		MaxDuration:   500 * time.Millisecond,
		Easing:        DefaultEasing,
	}
}

// Simulator drives trajectories from the session cursor onto a Renderer.
type Simulator struct {
	renderer Renderer
	cursor   *Cursor
	clock    utils.Clock
	rng      *rand.Rand
	cfg      Config
	logger   *zap.Logger
	observe  func(time.Duration)

	inFlight atomic.Bool
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithObserver receives the real duration of every completed movement.
func WithObserver(fn func(time.Duration)) Option {
	return func(s *Simulator) { s.observe = fn }
}

// NewSimulator creates a simulator bound to one session cursor.
func NewSimulator(renderer Renderer, cursor *Cursor, clock utils.Clock, rng *rand.Rand, cfg Config, logger *zap.Logger, opts ...Option) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultConfig().FrameInterval
	}

	s := &Simulator{
		renderer: renderer,
		cursor:   cursor,
		clock:    clock,
		rng:      rng,
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan builds the trajectory for a move between two points with a randomized duration.
func (s *Simulator) Plan(from, to Point) Trajectory {
	return Trajectory{
		Start:    from,
		End:      to,
		Duration: utils.RandomDuration(s.rng, s.cfg.MinDuration, s.cfg.MaxDuration),
		Easing:   s.cfg.Easing,
	}
}

// Move animates the pointer from the current cursor position to target.
// The cursor is updated only after the final sample was rendered.
func (s *Simulator) Move(ctx context.Context, target Point) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer s.inFlight.Store(false)

	tr := s.Plan(s.cursor.Position(), target)
	started := s.clock.Now()
	elapsed := func() time.Duration { return s.clock.Now().Sub(started) }

	frames := 0
	for sample := range tr.Samples(elapsed) {
		if err := s.renderer.RenderPointer(ctx, sample.X, sample.Y); err != nil {
			return fmt.Errorf("render pointer at (%.1f, %.1f): %w", sample.X, sample.Y, err)
		}
		frames++

		if sample.Fraction >= 1 {
			s.cursor.complete(sample.Point)
			break
		}

		if err := s.clock.Sleep(ctx, s.cfg.FrameInterval); err != nil {
			return err
		}
	}

	took := elapsed()
	s.logger.Debug("pointer moved",
		zap.Float64("from_x", tr.Start.X),
		zap.Float64("from_y", tr.Start.Y),
		zap.Float64("to_x", tr.End.X),
		zap.Float64("to_y", tr.End.Y),
		zap.Duration("planned", tr.Duration),
		zap.Duration("took", took),
		zap.Int("frames", frames),
	)
	if s.observe != nil {
		s.observe(took)
	}

	return nil
}
