package candidate

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Panel is the raw material read from the page for one candidate.
type Panel struct {
	// DetailHTML is the outer HTML of the candidate detail panel.
	DetailHTML string
	Position   string
	// SelfMessages are the texts of bubbles this account sent in the open conversation.
	SelfMessages []string
}

// Extractor maps a panel to a snapshot. HasRequiredSkill is left to the caller.
type Extractor interface {
	Extract(p Panel) (Snapshot, error)
}

// Tokens are the literal markers searched for in the detail panel.
type Tokens struct {
	Graduate       []string `mapstructure:"graduate"`
	NewGraduate    []string `mapstructure:"new-graduate"`
	Degree         []string `mapstructure:"degree"`
	WomenIconClass string   `mapstructure:"women-icon-class"`
}

// DefaultTokens returns the markers used by the chat site today.
func DefaultTokens() Tokens {
	return Tokens{
		Graduate:       []string{"25年", "26年"},
		NewGraduate:    []string{"24年", "1年"},
		Degree:         []string{"本科", "硕士", "博士"},
		WomenIconClass: "icon-icon-women",
	}
}

// TokenExtractor finds flags by plain substring search over the panel text
// and a class lookup for the gender icon.
type TokenExtractor struct {
	tokens   Tokens
	greeting string
}

// NewTokenExtractor creates an extractor. greeting is the message whose presence among
// SelfMessages marks the conversation as already answered.
func NewTokenExtractor(tokens Tokens, greeting string) *TokenExtractor {
	return &TokenExtractor{tokens: tokens, greeting: strings.TrimSpace(greeting)}
}

func (e *TokenExtractor) Extract(p Panel) (Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.DetailHTML))
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse detail panel: %w", err)
	}
	text := doc.Text()

	return Snapshot{
		IsGraduate:              containsAny(text, e.tokens.Graduate),
		IsNewGraduate:           containsAny(text, e.tokens.NewGraduate),
		IsUndergraduateOrMaster: containsAny(text, e.tokens.Degree),
		IsWomen:                 e.hasWomenIcon(doc),
		IsMessageAlreadySent:    e.greetingSent(p.SelfMessages),
		Position:                p.Position,
	}, nil
}

func (e *TokenExtractor) hasWomenIcon(doc *goquery.Document) bool {
	if e.tokens.WomenIconClass == "" {
		return false
	}
	return doc.Find(fmt.Sprintf("[class*=%q]", e.tokens.WomenIconClass)).Length() > 0
}

func (e *TokenExtractor) greetingSent(messages []string) bool {
	if e.greeting == "" {
		return false
	}
	for _, m := range messages {
		if strings.TrimSpace(m) == e.greeting {
			return true
		}
	}
	return false
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
