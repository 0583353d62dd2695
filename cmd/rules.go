package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/candidate"
	"github.com/spigell/boss-responder/internal/filtering"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [position]",
	Short: "Show which rule a position resolves to, or try a candidate interactively",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := getConfig()
		if err != nil {
			log.Fatalf("getting a config: %s", err)
		}

		engine := filtering.NewEngine(config.Rules, zap.NewNop())
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			describeRule(out, engine, args[0])
			return
		}

		if err := tryCandidate(out, engine); err != nil {
			log.Fatalf("exiting: %s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

// describeRule prints the rule matched by position and its checks.
func describeRule(out io.Writer, engine *filtering.Engine, position string) filtering.Match {
	m := engine.Rules().Resolve(position)
	if !m.Found {
		fmt.Fprintf(out, "position %q: %s\n", position, filtering.ReasonNoRule)
		return m
	}

	fmt.Fprintf(out, "position %q matches rule %q\n", position, m.Key)
	for _, st := range engine.Describe(m.Rule) {
		state := "off"
		if st.Enabled {
			state = "on"
		}
		fmt.Fprintf(out, "  %-14s %-3s fails with: %s\n", st.Name, state, st.Details["on_failure"])
	}
	return m
}

func tryCandidate(out io.Writer, engine *filtering.Engine) error {
	positionPrompt := promptui.Prompt{
		Label: "Position title",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("position must not be empty")
			}
			return nil
		},
	}

	position, err := positionPrompt.Run()
	if err != nil {
		return err
	}

	describeRule(out, engine, position)

	snap := candidate.Snapshot{Position: strings.TrimSpace(position)}
	questions := []struct {
		label string
		field *bool
	}{
		{"Graduating in 2025 or 2026?", &snap.IsGraduate},
		{"Graduated within the last year?", &snap.IsNewGraduate},
		{"Bachelor's degree or higher?", &snap.IsUndergraduateOrMaster},
		{"Woman?", &snap.IsWomen},
		{"Resume shows the required skills?", &snap.HasRequiredSkill},
	}

	for _, q := range questions {
		answer := promptui.Select{Label: q.label, Items: []string{PromptYes, PromptNo}}
		_, choice, err := answer.Run()
		if err != nil {
			return err
		}
		*q.field = choice == PromptYes
	}

	printVerdict(out, engine.Evaluate(snap))
	return nil
}

func printVerdict(out io.Writer, v filtering.Verdict) {
	if v.Qualified {
		fmt.Fprintf(out, "qualified by rule %q: greeting and resume request would be sent\n", v.Key)
		return
	}
	fmt.Fprintf(out, "not qualified: %s\n", v.Summary())
}
