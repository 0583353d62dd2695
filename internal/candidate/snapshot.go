// Package candidate turns the rendered chat panels into a typed attribute snapshot.
package candidate

import (
	"fmt"
	"strings"
)

// UnknownPosition is used when no position title can be read.
const UnknownPosition = "未知职位"

// Snapshot is everything the rule engine knows about one candidate. It is built once per
// iteration and never updated.
type Snapshot struct {
	IsGraduate              bool
	IsNewGraduate           bool
	IsUndergraduateOrMaster bool
	IsWomen                 bool
	IsMessageAlreadySent    bool
	HasRequiredSkill        bool
	Position                string
}

// DefaultSnapshot is returned when the detail panel is missing: the demographic checks pass,
// the skill check does not.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		IsGraduate:              true,
		IsUndergraduateOrMaster: true,
		Position:                UnknownPosition,
	}
}

func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "position=%q", s.Position)
	fmt.Fprintf(&b, " graduate=%t new_graduate=%t degree=%t women=%t sent=%t skill=%t",
		s.IsGraduate, s.IsNewGraduate, s.IsUndergraduateOrMaster, s.IsWomen, s.IsMessageAlreadySent, s.HasRequiredSkill)
	return b.String()
}
