package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
)

var flagScheduleMonths int

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Signed monthly totals from this month, without an opening balance",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().IntVar(&flagScheduleMonths, "months", forecast.DefaultScheduleMonths, "Number of months")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if flagScheduleMonths < 1 {
		return fmt.Errorf("--months must be at least 1, got %d", flagScheduleMonths)
	}
	today, err := resolveToday()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := activeProject(cmd.Context(), st)
	if err != nil {
		return err
	}

	_, rows := forecast.Schedule(p.Entries, flagScheduleMonths, today)
	cur := p.Currency

	totals := make([]float64, len(rows))
	out := make([][]string, 0, len(rows))
	for i, r := range rows {
		totals[i] = r.Total.InexactFloat64()
		out = append(out, []string{
			r.MonthLabel,
			cli.RenderAmount(r.Total, cli.FormatSignedMoney(r.Total, cur)),
			cli.RenderAmount(r.RunningTotal, cli.FormatMoney(r.RunningTotal, cur)),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SCHEDULE  %s  %s from %s",
		p.Name, cli.FormatMonths(flagScheduleMonths), today.Format("Jan 2006"))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Total", "Running"},
		Rows:    out,
	}))
	if len(totals) > 1 {
		fmt.Println()
		fmt.Printf("    %s  %s\n", cli.RenderMuted("Monthly totals"), cli.RenderSparkline(totals))
	}
	return nil
}
