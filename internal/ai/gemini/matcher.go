package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/ai"
	"github.com/spigell/boss-responder/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	systemInstruction   = "You are a strict resume screening assistant. Answer only with JSON."
	defaultMaxLogLength = 200
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

// Matcher asks Gemini whether a resume shows any of the configured skills.
type Matcher struct {
	generator     contentGenerator
	skills        []string
	minConfidence float64
	logger        *zap.Logger
	maxLogLen     int
}

var _ ai.SkillAssessor = (*Matcher)(nil)

func NewMatcher(generator contentGenerator, skills []string, minConfidence float64, maxLogLength int, logger *zap.Logger) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		generator:     generator,
		skills:        skills,
		minConfidence: minConfidence,
		logger:        logger,
		maxLogLen:     maxLogLength,
	}
}

// MatchSkills checks resume against the configured skills.
func (m *Matcher) MatchSkills(ctx context.Context, resume string) (bool, error) {
	a, err := m.AssessSkills(ctx, resume, m.skills)
	if err != nil {
		return false, err
	}
	return a.Match, nil
}

func (m *Matcher) AssessSkills(ctx context.Context, resume string, skills []string) (*ai.SkillAssessment, error) {
	resume = strings.TrimSpace(resume)
	if resume == "" {
		return nil, errors.New("resume text is required")
	}
	if len(skills) == 0 {
		return nil, errors.New("at least one skill is required")
	}

	prompt := buildPrompt(resume, skills)

	m.logger.Debug("gemini skill request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("gemini skill response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if assessment.Match && m.minConfidence > 0 && assessment.Confidence < m.minConfidence {
		m.logger.Debug("set match to false by confidence threshold",
			zap.Float64("confidence", assessment.Confidence),
			zap.Float64("threshold", m.minConfidence),
		)
		assessment.Match = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildPrompt(resume string, skills []string) string {
	var list strings.Builder
	for _, s := range skills {
		list.WriteString("- ")
		list.WriteString(s)
		list.WriteString("\n")
	}
	prompt := strings.ReplaceAll(promptTemplate, "{{SKILLS}}", strings.TrimSpace(list.String()))
	return strings.ReplaceAll(prompt, "{{RESUME}}", resume)
}

func parseResponse(raw string) (*ai.SkillAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	confidence := coerceFloat(data["confidence"])
	if math.IsNaN(confidence) {
		confidence = 0
	}

	return &ai.SkillAssessment{
		Match:      coerceBool(data["match"]),
		Confidence: confidence,
		Reason:     coerceString(data["reason"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
