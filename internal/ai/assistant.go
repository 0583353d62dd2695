// Package ai defines model-backed assessments used by the candidate evaluator.
package ai

import "context"

// SkillAssessment is a model's judgement of whether a resume shows the wanted skills.
type SkillAssessment struct {
	Match      bool
	Confidence float64
	Reason     string
	Raw        string
}

// SkillAssessor judges resume text against a list of wanted skills.
type SkillAssessor interface {
	AssessSkills(ctx context.Context, resume string, skills []string) (*SkillAssessment, error)
}
