// Package filtering resolves a position to its qualification rule and evaluates candidates against it.
package filtering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Rule is the set of checks configured for one position key.
type Rule struct {
	Key                          string `mapstructure:"key"`
	RequireGraduate              bool   `mapstructure:"require-graduate"`
	IsNewGraduate                bool   `mapstructure:"is-new-graduate"`
	RequireUndergraduateOrMaster bool   `mapstructure:"require-undergraduate-or-master"`
	ExcludeWomen                 bool   `mapstructure:"exclude-women"`
	RequireSkillMatch            bool   `mapstructure:"require-skill-match"`
}

// Rules is an ordered rule table. The first key contained in a position wins.
type Rules []Rule

// DefaultRules is the table the chat agent shipped with.
func DefaultRules() Rules {
	return Rules{
		{Key: "前端", RequireGraduate: true, RequireUndergraduateOrMaster: true, ExcludeWomen: true, RequireSkillMatch: true},
		{Key: "测试", IsNewGraduate: true, RequireUndergraduateOrMaster: true, ExcludeWomen: true},
	}
}

// DecodeRules converts the raw config value (a list of maps) into Rules.
// Unknown fields are rejected so a typo does not silently disable a check.
func DecodeRules(raw any) (Rules, error) {
	if raw == nil {
		return nil, nil
	}

	var rules Rules
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rules,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return rules, nil
}

// Validate checks that every rule has a distinct, non-empty key.
func (rs Rules) Validate() error {
	if len(rs) == 0 {
		return errors.New("at least one rule is required")
	}
	seen := make(map[string]bool, len(rs))
	for i, r := range rs {
		key := strings.ToLower(strings.TrimSpace(r.Key))
		if key == "" {
			return fmt.Errorf("rule #%d: key is required", i+1)
		}
		if seen[key] {
			return fmt.Errorf("rule #%d: duplicate key %q", i+1, r.Key)
		}
		seen[key] = true
	}
	return nil
}

// Match is the result of resolving a position. Found is false for the no-match sentinel.
type Match struct {
	Rule  Rule
	Key   string
	Found bool
}

// NoMatch is returned when no key is contained in the position.
var NoMatch = Match{}

// Resolve returns the first rule whose key is a case-insensitive substring of position.
func (rs Rules) Resolve(position string) Match {
	p := strings.ToLower(position)
	for _, r := range rs {
		key := strings.ToLower(strings.TrimSpace(r.Key))
		if key != "" && strings.Contains(p, key) {
			return Match{Rule: r, Key: r.Key, Found: true}
		}
	}
	return NoMatch
}

// MatchesAny reports whether title resolves to any rule.
func (rs Rules) MatchesAny(title string) bool {
	return rs.Resolve(title).Found
}
