package candidate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/failure"
	"github.com/spigell/boss-responder/internal/metrics"
)

// Reader reads rendered content from the chat page.
type Reader interface {
	TextContent(ctx context.Context, selector string) (string, bool, error)
	OuterHTML(ctx context.Context, selector string) (string, bool, error)
	InnerTexts(ctx context.Context, selector string) ([]string, error)
}

// Evaluator reads the open conversation into a Snapshot.
// Missing panels degrade to defaults; only page errors are returned.
type Evaluator struct {
	reader    Reader
	extractor Extractor
	skills    SkillMatcher
	sel       Selectors
	metrics   *metrics.Recorder
	logger    *zap.Logger
}

func NewEvaluator(reader Reader, extractor Extractor, skills SkillMatcher, sel Selectors, rec *metrics.Recorder, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		reader:    reader,
		extractor: extractor,
		skills:    skills,
		sel:       sel,
		metrics:   rec,
		logger:    logger,
	}
}

// List returns the conversation list entries. A missing list yields no entries.
func (e *Evaluator) List(ctx context.Context) ([]Entry, error) {
	html, found, err := e.reader.OuterHTML(ctx, e.sel.List)
	if err != nil {
		return nil, fmt.Errorf("read chat list: %w", err)
	}
	if !found {
		return nil, nil
	}
	return ParseList(html, e.sel)
}

// ReadResume returns the text of the open resume popup, or "" when it is absent.
func (e *Evaluator) ReadResume(ctx context.Context) (string, error) {
	text, found, err := e.reader.TextContent(ctx, e.sel.ResumeContent)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if !found {
		e.gap("resume", failure.EvaluationGap("read resume", e.sel.ResumeContent))
		return "", nil
	}
	return text, nil
}

// CheckSkills reports whether resume shows the required skills. Matcher errors count as no match.
func (e *Evaluator) CheckSkills(ctx context.Context, resume string) bool {
	if strings.TrimSpace(resume) == "" {
		return false
	}
	ok, err := e.skills.MatchSkills(ctx, resume)
	if err != nil {
		e.logger.Warn("skill check failed", zap.Error(err))
		return false
	}
	return ok
}

// Snapshot builds the candidate snapshot from the detail panel, merging in hasSkill.
// listTitle is the position shown in the chat list, used when the panel has none.
func (e *Evaluator) Snapshot(ctx context.Context, listTitle string, hasSkill bool) (Snapshot, error) {
	detail, found, err := e.reader.OuterHTML(ctx, e.sel.Detail)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read detail panel: %w", err)
	}
	if !found {
		e.gap("detail", failure.EvaluationGap("read candidate", e.sel.Detail))
		return DefaultSnapshot(), nil
	}

	position, err := e.position(ctx, listTitle)
	if err != nil {
		return Snapshot{}, err
	}

	self, err := e.reader.InnerTexts(ctx, e.sel.SelfMessages)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read sent messages: %w", err)
	}

	snap, err := e.extractor.Extract(Panel{DetailHTML: detail, Position: position, SelfMessages: self})
	if err != nil {
		return Snapshot{}, err
	}
	snap.HasRequiredSkill = hasSkill

	e.logger.Debug("candidate snapshot", zap.Stringer("snapshot", snap))
	return snap, nil
}

func (e *Evaluator) position(ctx context.Context, listTitle string) (string, error) {
	text, found, err := e.reader.TextContent(ctx, e.sel.Position)
	if err != nil {
		return "", fmt.Errorf("read position: %w", err)
	}
	if p := strings.TrimSpace(text); found && p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(listTitle); p != "" {
		return p, nil
	}
	return UnknownPosition, nil
}

func (e *Evaluator) gap(what string, err error) {
	e.logger.Warn("candidate data missing, using defaults", zap.String("what", what), zap.Error(err))
	e.metrics.EvaluationGap(what)
}
