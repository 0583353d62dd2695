package triage

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/candidate"
	"github.com/spigell/boss-responder/internal/failure"
	"github.com/spigell/boss-responder/internal/filtering"
	"github.com/spigell/boss-responder/internal/logger"
	"github.com/spigell/boss-responder/internal/metrics"
	"github.com/spigell/boss-responder/internal/utils"
)

// Actor performs the humanlike page actions.
type Actor interface {
	MoveAndClick(ctx context.Context, selector string) error
	SendMessage(ctx context.Context, text string) error
}

// Inspector reads candidate data from the page.
type Inspector interface {
	List(ctx context.Context) ([]candidate.Entry, error)
	ReadResume(ctx context.Context) (string, error)
	CheckSkills(ctx context.Context, resume string) bool
	Snapshot(ctx context.Context, listTitle string, hasSkill bool) (candidate.Snapshot, error)
}

// Judge decides whether a candidate qualifies.
type Judge interface {
	Evaluate(s candidate.Snapshot) filtering.Verdict
}

// Deps are the loop's collaborators. Metrics may be nil.
type Deps struct {
	Actor     Actor
	Inspector Inspector
	Judge     Judge
	Rules     filtering.Rules
	Clock     utils.Clock
	Rand      *rand.Rand
	Metrics   *metrics.Recorder
	Logger    *zap.Logger
}

// Loop is the chat processing loop. Iterations run strictly one after another.
type Loop struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Actor == nil || deps.Inspector == nil || deps.Judge == nil {
		return nil, errors.New("triage: actor, inspector and judge are required")
	}
	if deps.Clock == nil {
		deps.Clock = utils.RealClock{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Loop{cfg: cfg, deps: deps}, nil
}

// Run repeats iterations until ctx is done or a fatal error occurs. Every other failure is
// logged and followed by the backoff; the next iteration starts from scratch.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := l.RunIteration(ctx)
		if err == nil {
			l.deps.Metrics.Iteration(string(outcome))
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if failure.IsFatal(err) {
			return err
		}

		phase := PhaseOf(err)
		l.deps.Metrics.Iteration(string(OutcomeFailed))
		l.deps.Metrics.PhaseFailure(string(phase), failure.Label(err))
		l.deps.Logger.Warn("iteration failed, backing off",
			zap.String(logger.FieldPhase, string(phase)),
			zap.String("kind", failure.Label(err)),
			zap.Duration("backoff", l.cfg.Timing.Backoff),
			zap.Error(err),
		)

		if err := l.deps.Clock.Sleep(ctx, l.cfg.Timing.Backoff); err != nil {
			return err
		}
	}
}

// RunIteration walks the phases once. Failures come back as *PhaseError.
func (l *Loop) RunIteration(ctx context.Context) (Outcome, error) {
	it := &iteration{
		Loop: l,
		log:  logger.WithFields(l.deps.Logger, zap.String(logger.FieldIterationID, uuid.NewString())),
	}

	it.log.Debug("iteration started")
	for phase := PhaseSettle; phase != PhaseDone; {
		next, err := it.step(ctx, phase)
		if err != nil {
			return OutcomeFailed, &PhaseError{Phase: phase, Err: err}
		}
		phase = next
	}

	it.log.Info("iteration finished", zap.String("outcome", string(it.outcome)))
	return it.outcome, nil
}

// iteration holds the state of one pass. It is discarded afterwards.
type iteration struct {
	*Loop
	log *zap.Logger

	title    string
	hasSkill bool
	snapshot candidate.Snapshot
	outcome  Outcome
}

func (it *iteration) step(ctx context.Context, phase Phase) (Phase, error) {
	switch phase {
	case PhaseSettle:
		return PhaseTabs, it.sleep(ctx, it.cfg.Timing.Settle)
	case PhaseTabs:
		return PhaseFilter, it.clickTabs(ctx)
	case PhaseFilter:
		return PhaseScan, it.deps.Actor.MoveAndClick(ctx, it.cfg.Selectors.UnreadFilter)
	case PhaseScan:
		return PhaseResume, it.selectCandidate(ctx)
	case PhaseResume:
		return PhaseSnapshot, it.inspectResume(ctx)
	case PhaseSnapshot:
		snap, err := it.deps.Inspector.Snapshot(ctx, it.title, it.hasSkill)
		it.snapshot = snap
		return PhaseDecide, err
	case PhaseDecide:
		return it.decide(), nil
	case PhaseReply:
		return PhaseDone, it.reply(ctx)
	case PhaseGreet:
		return PhaseExchange, it.greet(ctx)
	case PhaseExchange:
		return PhaseDone, it.exchange(ctx)
	default:
		return PhaseDone, nil
	}
}

func (it *iteration) sleep(ctx context.Context, d time.Duration) error {
	return it.deps.Clock.Sleep(ctx, d)
}

func (it *iteration) clickTabs(ctx context.Context) error {
	if err := it.deps.Actor.MoveAndClick(ctx, it.cfg.Selectors.FirstTab); err != nil {
		return err
	}
	if err := it.sleep(ctx, it.cfg.Timing.TabGap); err != nil {
		return err
	}
	return it.deps.Actor.MoveAndClick(ctx, it.cfg.Selectors.SecondTab)
}

// selectCandidate opens the first unread conversation for a configured position,
// or the first unread one when no title matches.
func (it *iteration) selectCandidate(ctx context.Context) error {
	entries, err := it.deps.Inspector.List(ctx)
	if err != nil {
		return err
	}

	target := candidate.FirstBadgeSelector(it.cfg.List)
	matched := false
	for _, e := range entries {
		if !e.Unread {
			continue
		}
		if it.deps.Rules.MatchesAny(e.Title) {
			// Clicked by list index; a reorder since the scan hits another conversation.
			target = candidate.BadgeSelector(it.cfg.List, e.Index)
			it.title = e.Title
			matched = true
			break
		}
		if it.title == "" {
			it.title = e.Title
		}
	}

	it.log.Info("candidate selected",
		zap.String("title", it.title),
		zap.Bool("matched_rule", matched),
		zap.Int("entries", len(entries)),
	)

	if err := it.deps.Actor.MoveAndClick(ctx, target); err != nil {
		return err
	}
	return it.sleep(ctx, it.cfg.Timing.SelectSettle)
}

func (it *iteration) inspectResume(ctx context.Context) error {
	if err := it.deps.Actor.MoveAndClick(ctx, it.cfg.Selectors.ResumeOpen); err != nil {
		return err
	}
	if err := it.sleep(ctx, it.cfg.Timing.ResumeSettle); err != nil {
		return err
	}

	text, err := it.deps.Inspector.ReadResume(ctx)
	if err != nil {
		return err
	}

	if err := it.deps.Actor.MoveAndClick(ctx, it.cfg.Selectors.ResumeClose); err != nil {
		return err
	}

	it.hasSkill = it.deps.Inspector.CheckSkills(ctx, text)
	it.log.Debug("resume inspected", zap.Int("length", len([]rune(text))), zap.Bool("has_skill", it.hasSkill))
	return nil
}

func (it *iteration) decide() Phase {
	if it.snapshot.IsMessageAlreadySent {
		it.log.Info("greeting already sent, replying", zap.String("position", it.snapshot.Position))
		return PhaseReply
	}

	verdict := it.deps.Judge.Evaluate(it.snapshot)
	it.deps.Metrics.Verdict(verdict.Key, verdict.Qualified)
	if !verdict.Qualified {
		it.outcome = OutcomeSkipped
		return PhaseDone
	}
	return PhaseGreet
}

func (it *iteration) reply(ctx context.Context) error {
	delay := utils.RandomDuration(it.deps.Rand, it.cfg.Timing.ReplyDelayMin, it.cfg.Timing.ReplyDelayMax)
	if err := it.sleep(ctx, delay); err != nil {
		return err
	}

	phrase, _ := utils.RandomElement(it.deps.Rand, it.cfg.Replies)
	if err := it.deps.Actor.SendMessage(ctx, phrase); err != nil {
		return err
	}

	it.deps.Metrics.MessageSent("reply")
	it.outcome = OutcomeReplied
	return nil
}

func (it *iteration) greet(ctx context.Context) error {
	if err := it.deps.Actor.SendMessage(ctx, it.cfg.Greeting); err != nil {
		return err
	}
	it.deps.Metrics.MessageSent("greeting")
	return it.sleep(ctx, it.cfg.Timing.GreetSettle)
}

func (it *iteration) exchange(ctx context.Context) error {
	if err := it.deps.Actor.MoveAndClick(ctx, it.cfg.Selectors.ExchangeOpen); err != nil {
		return err
	}
	if err := it.sleep(ctx, it.cfg.Timing.ExchangeGap); err != nil {
		return err
	}
	if err := it.deps.Actor.MoveAndClick(ctx, it.cfg.Selectors.ExchangeConfirm); err != nil {
		return err
	}
	it.outcome = OutcomeGreeted
	return nil
}
