package candidate

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// SkillMatcher decides whether resume text shows the required skills.
type SkillMatcher interface {
	MatchSkills(ctx context.Context, resume string) (bool, error)
}

// KeywordMatcher matches when any keyword is a case-insensitive substring of the resume.
type KeywordMatcher struct {
	keywords []string
}

func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	m := &KeywordMatcher{}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m.keywords = append(m.keywords, k)
		}
	}
	return m
}

func (m *KeywordMatcher) MatchSkills(_ context.Context, resume string) (bool, error) {
	return containsAny(strings.ToLower(resume), m.keywords), nil
}

// Keywords returns the normalized keyword list.
func (m *KeywordMatcher) Keywords() []string {
	return append([]string(nil), m.keywords...)
}

// FallbackMatcher asks primary first and falls back when it fails.
type FallbackMatcher struct {
	primary  SkillMatcher
	fallback SkillMatcher
	logger   *zap.Logger
}

func NewFallbackMatcher(primary, fallback SkillMatcher, logger *zap.Logger) *FallbackMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackMatcher{primary: primary, fallback: fallback, logger: logger}
}

func (m *FallbackMatcher) MatchSkills(ctx context.Context, resume string) (bool, error) {
	ok, err := m.primary.MatchSkills(ctx, resume)
	if err == nil {
		return ok, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.logger.Warn("skill assessment failed, using keyword match", zap.Error(err))
	return m.fallback.MatchSkills(ctx, resume)
}
