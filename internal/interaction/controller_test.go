package interaction

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/browser/browsertest"
	"github.com/spigell/boss-responder/internal/failure"
	"github.com/spigell/boss-responder/internal/motion"
	"github.com/spigell/boss-responder/internal/utils/clocktest"
)

type fixture struct {
	page   *browsertest.Page
	clock  *clocktest.Clock
	cursor *motion.Cursor
	ctrl   *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	page := browsertest.New()
	clock := clocktest.New()
	cursor := motion.NewCursor(motion.Point{X: 960, Y: 432})
	sim := motion.NewSimulator(page, cursor, clock, rand.New(rand.NewSource(1)), motion.DefaultConfig(), zap.NewNop())
	return &fixture{
		page:   page,
		clock:  clock,
		cursor: cursor,
		ctrl:   New(page, sim, clock, DefaultConfig(), zap.NewNop()),
	}
}

// nonFrameSleeps drops the 10ms animation frames to expose the fixed settles.
func nonFrameSleeps(sleeps []time.Duration) []time.Duration {
	var out []time.Duration
	for _, s := range sleeps {
		if s != 10*time.Millisecond {
			out = append(out, s)
		}
	}
	return out
}

func TestMoveAndClickClicksResolvedCenter(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.MoveAndClick(context.Background(), ".chat-label-item:nth-child(1)"))

	assert.Equal(t, []string{".chat-label-item:nth-child(1)"}, f.page.Clicks())
	assert.Equal(t, []string{".chat-label-item:nth-child(1)"}, f.page.Resolved(), "center is resolved once, before movement")
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 100 * time.Millisecond}, nonFrameSleeps(f.clock.Sleeps()))

	center, err := f.ctrl.ResolveTargetCenter(context.Background(), ".chat-label-item:nth-child(1)")
	require.NoError(t, err)
	assert.Equal(t, center, f.cursor.Position())
	assert.Greater(t, f.page.PointerFrames(), 1)
}

func TestMoveToMissingElementDoesNotAnimate(t *testing.T) {
	f := newFixture(t)
	f.page.Hidden[".resume-btn-content > a"] = true

	_, err := f.ctrl.MoveTo(context.Background(), ".resume-btn-content > a")

	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrElementNotFound))
	assert.Zero(t, f.page.PointerFrames())
	assert.Empty(t, f.clock.Sleeps(), "no settle before a failed resolution")
	assert.Equal(t, motion.Point{X: 960, Y: 432}, f.cursor.Position())
}

func TestSendMessageSequence(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()

	require.NoError(t, f.ctrl.SendMessage(context.Background(), "你好"))

	actions := f.page.Actions()
	require.Len(t, actions, 3)
	assert.Equal(t, browsertest.Action{Kind: "click", Selector: cfg.InputSelector}, actions[0])
	assert.Equal(t, browsertest.Action{Kind: "type", Text: "你好"}, actions[1])
	assert.Equal(t, browsertest.Action{Kind: "click", Selector: cfg.SubmitSelector}, actions[2])

	assert.Equal(t, []time.Duration{
		500 * time.Millisecond, 100 * time.Millisecond, // move + click into input
		500 * time.Millisecond, // before typing
		500 * time.Millisecond, // after typing
		500 * time.Millisecond, 100 * time.Millisecond, // move + click submit
	}, nonFrameSleeps(f.clock.Sleeps()))
}

func TestSendMessageFailsWhenSubmitMissing(t *testing.T) {
	f := newFixture(t)
	f.page.Hidden[DefaultConfig().SubmitSelector] = true

	err := f.ctrl.SendMessage(context.Background(), "收到")

	require.ErrorIs(t, err, failure.ErrElementNotFound)
	assert.Contains(t, err.Error(), "submit message")
	assert.Equal(t, []string{"收到"}, f.page.Typed())
}

func TestClickSkipsMotion(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.Click(context.Background(), ".boss-popup__close > i"))

	assert.Equal(t, []string{".boss-popup__close > i"}, f.page.Clicks())
	assert.Zero(t, f.page.PointerFrames())
	assert.Empty(t, f.clock.Sleeps())
}
