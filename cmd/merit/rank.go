package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/merit/internal/scoring"
)

var (
	rankPeriod string
	rankStart  string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Re-rank the cohort of one period",
	Long: `Re-rank every current score of the period of type --period starting at
--start. The start is a date (2026-10-01) or an RFC3339 timestamp; dates are
read in the configured scoring time zone.`,
	Example: `  merit rank --period monthly --start 2026-10-01`,
	Args:    cobra.NoArgs,
	RunE:    runRank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankPeriod, "period", "p", string(scoring.PeriodMonthly), "Period type (monthly|quarterly|yearly|custom)")
	rankCmd.Flags().StringVar(&rankStart, "start", "", "Period start (YYYY-MM-DD or RFC3339)")
	rankCmd.MarkFlagRequired("start")
}

func parseStart(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --start %q", raw)
	}
	return t, nil
}

func runRank(cmd *cobra.Command, args []string) error {
	periodType, err := scoring.ParsePeriodType(rankPeriod)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	start, err := parseStart(rankStart, s.location)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	result, err := s.generation.Rank(ctx, periodType, start)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
