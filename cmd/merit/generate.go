package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/merit/internal/generation"
	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scoring"
)

var (
	generatePeriod   string
	generateTeachers []string
	generateStart    string
	generateEnd      string
	generateAdmin    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate scores for a period and rank the cohort",
	Long: `Generate scores for every active teacher, or the teachers given with
--teacher, for the current period of --period. Custom periods take --start
and --end as RFC3339 timestamps.

The batch report is printed as JSON. The command exits non-zero when the
batch aborts or ranking fails.`,
	Example: `  merit generate --period monthly
  merit generate --period quarterly --teacher 5f0c... --teacher 9a41...
  merit generate --period custom --start 2026-09-01T00:00:00Z --end 2026-09-30T23:59:59Z`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generatePeriod, "period", "p", string(scoring.PeriodMonthly), "Period type (monthly|quarterly|yearly|custom)")
	generateCmd.Flags().StringSliceVarP(&generateTeachers, "teacher", "t", nil, "Teacher id to score (repeatable; default all active teachers)")
	generateCmd.Flags().StringVar(&generateStart, "start", "", "Custom period start (RFC3339)")
	generateCmd.Flags().StringVar(&generateEnd, "end", "", "Custom period end (RFC3339)")
	generateCmd.Flags().BoolVar(&generateAdmin, "admin", false, "Record the run as administrator-triggered")
}

func buildGenerateCommand() (generation.GenerateAllCommand, error) {
	periodType, err := scoring.ParsePeriodType(generatePeriod)
	if err != nil {
		return generation.GenerateAllCommand{}, err
	}

	cmd := generation.GenerateAllCommand{
		PeriodType: periodType,
		Generator:  scores.GeneratorSystem,
	}
	if generateAdmin {
		cmd.Generator = scores.GeneratorAdmin
	}

	for _, raw := range generateTeachers {
		id, err := uuid.Parse(raw)
		if err != nil {
			return generation.GenerateAllCommand{}, fmt.Errorf("invalid teacher id %q", raw)
		}
		cmd.TeacherIDs = append(cmd.TeacherIDs, id)
	}

	if periodType == scoring.PeriodCustom {
		start, err := time.Parse(time.RFC3339, generateStart)
		if err != nil {
			return generation.GenerateAllCommand{}, fmt.Errorf("invalid --start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, generateEnd)
		if err != nil {
			return generation.GenerateAllCommand{}, fmt.Errorf("invalid --end: %w", err)
		}
		cmd.Start = &start
		cmd.End = &end
	}

	return cmd, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	command, err := buildGenerateCommand()
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	report, err := s.generation.GenerateAll(ctx, command)
	if report != nil {
		if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if report.Aborted {
		return fmt.Errorf("batch aborted: %s", report.AbortReason)
	}
	return nil
}
