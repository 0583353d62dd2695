package triage

import (
	"context"
	"errors"
	"maps"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/boss-responder/internal/browser/browsertest"
	"github.com/spigell/boss-responder/internal/candidate"
	"github.com/spigell/boss-responder/internal/failure"
	"github.com/spigell/boss-responder/internal/filtering"
	"github.com/spigell/boss-responder/internal/interaction"
	"github.com/spigell/boss-responder/internal/logger"
	"github.com/spigell/boss-responder/internal/metrics"
	"github.com/spigell/boss-responder/internal/motion"
	"github.com/spigell/boss-responder/internal/utils/clocktest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	listHTML = `<div class="user-list">
  <div class="geek-item"><span class="badge-count-common-less">1</span><span class="source-job">Java开发</span></div>
  <div class="geek-item"><span class="badge-count-common-less">3</span><span class="source-job">前端开发工程师</span></div>
</div>`
	detailHTML = `<div class="base-info-single-detial"><span>李四</span><span>25年应届生</span><span>本科</span></div>`
)

var secondBadge = ".user-list .geek-item:nth-child(2) .badge-count-common-less"

type harness struct {
	page  *browsertest.Page
	clock *clocktest.Clock
	cfg   Config
	ui    interaction.Config
	reg   *prometheus.Registry
	logs  *observer.ObservedLogs
	deps  Deps
	loop  *Loop
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		page:  browsertest.New(),
		clock: clocktest.New(),
		cfg:   DefaultConfig(),
		ui:    interaction.DefaultConfig(),
		reg:   prometheus.NewRegistry(),
	}
	core, logs := observer.New(zapcore.DebugLevel)
	h.logs = logs
	log := zap.New(core)
	rec := metrics.New(h.reg)

	cursor := motion.NewCursor(motion.Point{X: 960, Y: 432})
	sim := motion.NewSimulator(h.page, cursor, h.clock, rand.New(rand.NewSource(7)), motion.DefaultConfig(), zap.NewNop())
	ctrl := interaction.New(h.page, sim, h.clock, h.ui, zap.NewNop())

	ev := candidate.NewEvaluator(h.page,
		candidate.NewTokenExtractor(candidate.DefaultTokens(), h.cfg.Greeting),
		candidate.NewKeywordMatcher([]string{"vue", "node.js", "nodejs"}),
		h.cfg.List, rec, zap.NewNop())

	rules := filtering.DefaultRules()
	h.deps = Deps{
		Actor:     ctrl,
		Inspector: ev,
		Judge:     filtering.NewEngine(rules, zap.NewNop()),
		Rules:     rules,
		Clock:     h.clock,
		Rand:      rand.New(rand.NewSource(42)),
		Metrics:   rec,
		Logger:    log,
	}

	loop, err := New(h.cfg, h.deps)
	require.NoError(t, err)
	h.loop = loop
	return h
}

// frontendCandidate renders a 2025 graduate with a bachelor's degree applying for a frontend role.
func (h *harness) frontendCandidate(resume string, greeted bool) {
	sel := h.cfg.List
	h.page.HTML[sel.List] = listHTML
	h.page.HTML[sel.Detail] = detailHTML
	h.page.Text[sel.Position] = "前端开发工程师"
	h.page.Text[sel.ResumeContent] = resume
	if greeted {
		h.page.Texts[sel.SelfMessages] = []string{h.cfg.Greeting}
	} else {
		delete(h.page.Texts, sel.SelfMessages)
	}
}

func (h *harness) inspectionClicks() []string {
	s := h.cfg.Selectors
	return []string{s.FirstTab, s.SecondTab, s.UnreadFilter, secondBadge, s.ResumeOpen, s.ResumeClose}
}

func nonFrameSleeps(sleeps []time.Duration) []time.Duration {
	var out []time.Duration
	for _, s := range sleeps {
		if s != motion.DefaultConfig().FrameInterval {
			out = append(out, s)
		}
	}
	return out
}

func TestQualifiedCandidateIsGreeted(t *testing.T) {
	h := newHarness(t)
	h.frontendCandidate("三年经验，熟悉Vue.js开发", false)

	outcome, err := h.loop.RunIteration(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeGreeted, outcome)

	want := append(h.inspectionClicks(),
		h.ui.InputSelector, h.ui.SubmitSelector,
		h.cfg.Selectors.ExchangeOpen, h.cfg.Selectors.ExchangeConfirm,
	)
	assert.Equal(t, want, h.page.Clicks())
	assert.Equal(t, []string{"你好"}, h.page.Typed())

	sleeps := nonFrameSleeps(h.clock.Sleeps())
	assert.Equal(t, 2*time.Second, sleeps[0], "iteration starts with the settle")
	assert.Equal(t, 2, h.clock.Count(time.Second), "resume and greeting settles")
	assert.Equal(t, 1, h.clock.Count(400*time.Millisecond))

	assert.Equal(t, 1.0, counterValue(t, h.reg, "boss_responder_messages_sent_total", map[string]string{"kind": "greeting"}))
	assert.Equal(t, 1.0, counterValue(t, h.reg, "boss_responder_verdicts_total", map[string]string{"rule": "前端", "result": "qualified"}))
}

func TestUnqualifiedCandidateGetsNoMessage(t *testing.T) {
	h := newHarness(t)
	h.frontendCandidate("熟悉React和Angular", false)

	outcome, err := h.loop.RunIteration(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, h.inspectionClicks(), h.page.Clicks())
	assert.Empty(t, h.page.Typed())
}

func TestGreetedCandidateGetsOneFillerReply(t *testing.T) {
	h := newHarness(t)
	h.frontendCandidate("熟悉React", true)

	outcome, err := h.loop.RunIteration(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, outcome)

	typed := h.page.Typed()
	require.Len(t, typed, 1)
	assert.Contains(t, h.cfg.Replies, typed[0])

	assert.Equal(t, append(h.inspectionClicks(), h.ui.InputSelector, h.ui.SubmitSelector), h.page.Clicks())

	// The reply delay directly follows the resume close click (move settle, click settle).
	sleeps := nonFrameSleeps(h.clock.Sleeps())
	closeAt := slices.Index(sleeps, time.Second) + 2
	delay := sleeps[closeAt+1]
	assert.GreaterOrEqual(t, delay, time.Second)
	assert.Less(t, delay, 3*time.Second)

	verdicts, err := testutil.GatherAndCount(h.reg, "boss_responder_verdicts_total")
	require.NoError(t, err)
	assert.Zero(t, verdicts, "qualification is bypassed")
}

func TestFallsBackToFirstUnreadBadge(t *testing.T) {
	h := newHarness(t)
	h.frontendCandidate("vue", false)
	h.page.HTML[h.cfg.List.List] = `<div class="user-list">
  <div class="geek-item"><span class="source-job">前端</span></div>
  <div class="geek-item"><span class="badge-count-common-less">1</span><span class="source-job">产品经理</span></div>
</div>`

	_, err := h.loop.RunIteration(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ".user-list .badge-count-common-less", h.page.Clicks()[3])
}

func TestIterationsAreIndependent(t *testing.T) {
	h := newHarness(t)
	h.frontendCandidate("vue", false)

	_, err := h.loop.RunIteration(context.Background())
	require.NoError(t, err)
	_, err = h.loop.RunIteration(context.Background())
	require.NoError(t, err)

	finished := h.logs.FilterMessage("iteration finished").All()
	require.Len(t, finished, 2)
	first := finished[0].ContextMap()[logger.FieldIterationID]
	second := finished[1].ContextMap()[logger.FieldIterationID]
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestElementNotFoundBacksOffOnceAndRestarts(t *testing.T) {
	s := DefaultSelectors()
	ui := interaction.DefaultConfig()

	cases := []struct {
		selector string
		phase    Phase
	}{
		{s.FirstTab, PhaseTabs},
		{s.SecondTab, PhaseTabs},
		{s.UnreadFilter, PhaseFilter},
		{secondBadge, PhaseScan},
		{s.ResumeOpen, PhaseResume},
		{s.ResumeClose, PhaseResume},
		{ui.InputSelector, PhaseGreet},
		{ui.SubmitSelector, PhaseGreet},
		{s.ExchangeOpen, PhaseExchange},
		{s.ExchangeConfirm, PhaseExchange},
	}

	for _, tc := range cases {
		t.Run(string(tc.phase)+" "+tc.selector, func(t *testing.T) {
			h := newHarness(t)
			h.frontendCandidate("熟悉Vue.js开发", false)

			failed := false
			h.page.OnResolve = func(selector string) error {
				if selector == tc.selector && !failed {
					failed = true
					return failure.ElementNotFound("wait visible", selector, errors.New("not visible after 30s"))
				}
				return nil
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			stopOnThirdSettle(h.clock, cancel)

			err := h.loop.Run(ctx)

			require.ErrorIs(t, err, context.Canceled)
			assert.True(t, failed)
			assert.Equal(t, 1, h.clock.Count(h.cfg.Timing.Backoff))

			backoffs := h.logs.FilterMessage("iteration failed, backing off").All()
			require.Len(t, backoffs, 1)
			ctxMap := backoffs[0].ContextMap()
			assert.Equal(t, string(tc.phase), ctxMap[logger.FieldPhase])
			assert.Equal(t, "ELEMENT_NOT_FOUND", ctxMap["kind"])

			// The retry starts over from the first tab and completes the greeting.
			clicks := h.page.Clicks()
			restart := lastIndex(clicks, s.FirstTab)
			require.GreaterOrEqual(t, restart, 0)
			assert.Equal(t, []string{s.FirstTab, s.SecondTab, s.UnreadFilter, secondBadge}, clicks[restart:restart+4])
			assert.Equal(t, s.ExchangeConfirm, clicks[len(clicks)-1])

			assert.Equal(t, 1.0, counterValue(t, h.reg, "boss_responder_phase_failures_total",
				map[string]string{"phase": string(tc.phase), "kind": "ELEMENT_NOT_FOUND"}))
		})
	}
}

func TestRetryUsesFreshPageState(t *testing.T) {
	h := newHarness(t)
	h.frontendCandidate("熟悉Vue.js开发", false)
	resumeOpen := h.cfg.Selectors.ResumeOpen

	failed := false
	h.page.OnResolve = func(selector string) error {
		if selector == resumeOpen && !failed {
			failed = true
			// Meanwhile someone greeted the candidate by hand.
			h.page.Texts[h.cfg.List.SelfMessages] = []string{h.cfg.Greeting}
			return failure.ElementNotFound("wait visible", selector, errors.New("timeout"))
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopOnThirdSettle(h.clock, cancel)

	require.ErrorIs(t, h.loop.Run(ctx), context.Canceled)

	typed := h.page.Typed()
	require.Len(t, typed, 1)
	assert.NotEqual(t, h.cfg.Greeting, typed[0])
	assert.Contains(t, h.cfg.Replies, typed[0])
	assert.Equal(t, 1, h.clock.Count(h.cfg.Timing.Backoff))
}

type fatalActor struct{ calls int }

func (a *fatalActor) MoveAndClick(context.Context, string) error {
	a.calls++
	return failure.AttachFailure("http://127.0.0.1:9333", errors.New("connection refused"))
}

func (a *fatalActor) SendMessage(context.Context, string) error { return nil }

func TestFatalErrorStopsLoop(t *testing.T) {
	h := newHarness(t)
	actor := &fatalActor{}
	deps := h.deps
	deps.Actor = actor

	loop, err := New(h.cfg, deps)
	require.NoError(t, err)

	err = loop.Run(context.Background())

	require.ErrorIs(t, err, failure.ErrAttachFailure)
	assert.Equal(t, PhaseTabs, PhaseOf(err))
	assert.Equal(t, 1, actor.calls)
	assert.Zero(t, h.clock.Count(h.cfg.Timing.Backoff))
}

func TestNewValidatesConfig(t *testing.T) {
	h := newHarness(t)

	cfg := DefaultConfig()
	cfg.Replies = nil
	_, err := New(cfg, h.deps)
	assert.ErrorContains(t, err, "reply phrase")

	cfg = DefaultConfig()
	cfg.Timing.ReplyDelayMin = 5 * time.Second
	_, err = New(cfg, h.deps)
	assert.ErrorContains(t, err, "inverted")

	_, err = New(DefaultConfig(), Deps{})
	assert.Error(t, err)
}

func stopOnThirdSettle(clock *clocktest.Clock, cancel context.CancelFunc) {
	settles := 0
	clock.OnSleep = func(d time.Duration, _ int) error {
		if d == DefaultTiming().Settle {
			settles++
			if settles == 3 {
				cancel()
			}
		}
		return nil
	}
}

func lastIndex(items []string, v string) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] == v {
			return i
		}
	}
	return -1
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			if maps.Equal(got, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
