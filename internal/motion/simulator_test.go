package motion

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/utils/clocktest"
)

type recordingRenderer struct {
	points []Point
	err    error
	failAt int
	hook   func()
}

func (r *recordingRenderer) RenderPointer(_ context.Context, x, y float64) error {
	r.points = append(r.points, Point{X: x, Y: y})
	if r.hook != nil {
		r.hook()
	}
	if r.err != nil && len(r.points) >= r.failAt {
		return r.err
	}
	return nil
}

func newTestSimulator(r Renderer, cursor *Cursor, clock *clocktest.Clock, seed int64) *Simulator {
	return NewSimulator(r, cursor, clock, rand.New(rand.NewSource(seed)), DefaultConfig(), zap.NewNop())
}

func TestMoveUpdatesCursorToExactTarget(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		renderer := &recordingRenderer{}
		clock := clocktest.New()
		cursor := NewCursor(Point{X: 960, Y: 432})
		var observed time.Duration
		sim := NewSimulator(renderer, cursor, clock, rand.New(rand.NewSource(seed)), DefaultConfig(), zap.NewNop(),
			WithObserver(func(d time.Duration) { observed = d }))

		target := Point{X: 123.456, Y: 789.012}
		require.NoError(t, sim.Move(context.Background(), target))

		assert.Equal(t, target, cursor.Position())
		require.NotEmpty(t, renderer.points)
		assert.Equal(t, target, renderer.points[len(renderer.points)-1])
		assert.Equal(t, Point{X: 960, Y: 432}, renderer.points[0], "first frame starts at the cursor")

		for _, d := range clock.Sleeps() {
			assert.Equal(t, 10*time.Millisecond, d)
		}

		// frames are paced at 10ms, so the total is within one frame of a [100ms, 500ms) plan
		assert.GreaterOrEqual(t, observed, 100*time.Millisecond)
		assert.Less(t, observed, 510*time.Millisecond)
	}
}

func TestPlanDurationRange(t *testing.T) {
	sim := newTestSimulator(&recordingRenderer{}, NewCursor(Point{}), clocktest.New(), 42)
	for i := 0; i < 500; i++ {
		tr := sim.Plan(Point{}, Point{X: 1, Y: 1})
		require.GreaterOrEqual(t, tr.Duration, 100*time.Millisecond)
		require.Less(t, tr.Duration, 500*time.Millisecond)
		require.Equal(t, DefaultEasing, tr.Easing)
	}
}

func TestMoveRenderFailureKeepsCursor(t *testing.T) {
	boom := errors.New("target closed")
	renderer := &recordingRenderer{err: boom, failAt: 3}
	start := Point{X: 10, Y: 10}
	cursor := NewCursor(start)
	sim := newTestSimulator(renderer, cursor, clocktest.New(), 3)

	err := sim.Move(context.Background(), Point{X: 500, Y: 500})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, start, cursor.Position(), "cursor must reflect the last completed trajectory only")
}

func TestMoveIsSingleFlight(t *testing.T) {
	renderer := &recordingRenderer{}
	cursor := NewCursor(Point{})
	sim := newTestSimulator(renderer, cursor, clocktest.New(), 5)

	var nested error
	renderer.hook = func() {
		if nested == nil {
			nested = sim.Move(context.Background(), Point{X: 1, Y: 1})
		}
	}

	require.NoError(t, sim.Move(context.Background(), Point{X: 300, Y: 300}))
	assert.ErrorIs(t, nested, ErrInFlight)
	assert.Equal(t, Point{X: 300, Y: 300}, cursor.Position())

	// the guard is released afterwards
	renderer.hook = nil
	require.NoError(t, sim.Move(context.Background(), Point{X: 5, Y: 5}))
}

func TestMoveStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := clocktest.New()
	clock.OnSleep = func(_ time.Duration, count int) error {
		if count == 2 {
			cancel()
		}
		return nil
	}
	cursor := NewCursor(Point{})
	sim := newTestSimulator(&recordingRenderer{}, cursor, clock, 9)

	err := sim.Move(ctx, Point{X: 400, Y: 400})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Point{}, cursor.Position())
}
