package filtering

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/candidate"
)

// ReasonNoRule is reported when the position resolves to no rule.
const ReasonNoRule = "no rule matched"

// Check is one predicate of a rule.
type Check interface {
	Name() string
	// Active reports whether the rule asks for this check.
	Active(r Rule) bool
	// Passes reports whether the snapshot satisfies the check.
	Passes(s candidate.Snapshot) bool
	// Reason describes a failed check.
	Reason() string
}

type check struct {
	name   string
	reason string
	active func(Rule) bool
	passes func(candidate.Snapshot) bool
}

func (c check) Name() string                     { return c.name }
func (c check) Active(r Rule) bool               { return c.active(r) }
func (c check) Passes(s candidate.Snapshot) bool { return c.passes(s) }
func (c check) Reason() string                   { return c.reason }

// DefaultChecks returns the checks in evaluation order.
func DefaultChecks() []Check {
	return []Check{
		check{
			name:   "graduate",
			reason: "not a graduate",
			active: func(r Rule) bool { return r.RequireGraduate },
			passes: func(s candidate.Snapshot) bool { return s.IsGraduate },
		},
		check{
			name:   "new_graduate",
			reason: "not within one year of graduation",
			active: func(r Rule) bool { return r.IsNewGraduate },
			passes: func(s candidate.Snapshot) bool { return s.IsNewGraduate },
		},
		check{
			name:   "degree",
			reason: "no bachelor's, master's or doctoral degree",
			active: func(r Rule) bool { return r.RequireUndergraduateOrMaster },
			passes: func(s candidate.Snapshot) bool { return s.IsUndergraduateOrMaster },
		},
		check{
			name:   "exclude_women",
			reason: "excluded by gender",
			active: func(r Rule) bool { return r.ExcludeWomen },
			passes: func(s candidate.Snapshot) bool { return !s.IsWomen },
		},
		check{
			name:   "skill",
			reason: "resume lacks required skills",
			active: func(r Rule) bool { return r.RequireSkillMatch },
			passes: func(s candidate.Snapshot) bool { return s.HasRequiredSkill },
		},
	}
}

// Verdict is the outcome of evaluating a snapshot. It is used for logging only.
type Verdict struct {
	Qualified bool
	Reasons   []string
	Key       string
}

// Summary joins the reasons for logging.
func (v Verdict) Summary() string {
	if len(v.Reasons) == 0 {
		return "all checks passed"
	}
	return strings.Join(v.Reasons, "; ")
}

// Engine evaluates snapshots against a rule table.
type Engine struct {
	rules  Rules
	checks []Check
	logger *zap.Logger
}

func NewEngine(rules Rules, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{rules: rules, checks: DefaultChecks(), logger: logger}
}

func (e *Engine) Rules() Rules { return e.rules }

// Evaluate resolves the snapshot's position and runs every active check.
// Failed checks do not stop evaluation; all reasons are collected.
func (e *Engine) Evaluate(s candidate.Snapshot) Verdict {
	m := e.rules.Resolve(s.Position)

	v := e.evaluate(m, s)

	e.logger.Info("candidate evaluated",
		zap.String("position", s.Position),
		zap.String("rule", m.Key),
		zap.Bool("qualified", v.Qualified),
		zap.String("reasons", v.Summary()),
	)
	return v
}

func (e *Engine) evaluate(m Match, s candidate.Snapshot) Verdict {
	if !m.Found {
		return Verdict{Reasons: []string{ReasonNoRule}}
	}

	var reasons []string
	for _, c := range e.checks {
		if c.Active(m.Rule) && !c.Passes(s) {
			reasons = append(reasons, c.Reason())
		}
	}
	return Verdict{Qualified: len(reasons) == 0, Reasons: reasons, Key: m.Key}
}

// Status describes one check of a rule.
type Status struct {
	Name    string
	Enabled bool
	Details map[string]string
}

// Describe lists every check with whether rule enables it.
func (e *Engine) Describe(r Rule) []Status {
	statuses := make([]Status, 0, len(e.checks))
	for _, c := range e.checks {
		statuses = append(statuses, Status{
			Name:    c.Name(),
			Enabled: c.Active(r),
			Details: map[string]string{"on_failure": c.Reason()},
		})
	}
	return statuses
}
