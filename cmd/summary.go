package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Forecast totals, ending and lowest balance",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
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
	applyHorizon(&p, 0)

	res := forecast.Generate(p, today)
	summary := forecast.Summarise(res.Rows, p.OpeningBalance)
	warnTruncated(p.Name, res.Truncated)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SUMMARY  %s", p.Name)))
	fmt.Println()
	fmt.Print(summaryKV(p, res.Rows, summary))

	if len(res.Rows) > 1 {
		balances := make([]float64, len(res.Rows))
		for i, r := range res.Rows {
			balances[i] = r.Balance.InexactFloat64()
		}
		fmt.Println()
		fmt.Printf("    %s  %s\n", cli.RenderMuted("Balance trend"), cli.RenderSparkline(balances))
	}
	return nil
}

func summaryKV(p model.Project, rows []model.ForecastRow, s model.ForecastSummary) string {
	cur := p.Currency
	pairs := [][2]string{
		{"Opening balance", cli.FormatMoney(s.OpeningBalance, cur)},
		{"Total income", cli.RenderAmount(s.TotalIncome, cli.FormatMoney(s.TotalIncome, cur))},
		{"Total expenses", cli.RenderAmount(s.TotalExpense.Neg(), cli.FormatMoney(s.TotalExpense, cur))},
		{"Net", cli.RenderAmount(s.Net(), cli.FormatSignedMoney(s.Net(), cur))},
		{"Ending balance", cli.RenderAmount(s.EndingBalance, cli.FormatMoney(s.EndingBalance, cur)) +
			"  " + cli.RenderMuted("("+cli.FormatDelta(s.EndingBalance, s.OpeningBalance, cur)+")")},
	}
	if low, ok := forecast.LowestBalance(rows); ok {
		lowest := cli.RenderAmount(low.Balance, cli.FormatMoney(low.Balance, cur)) + "  " + cli.RenderMuted(low.Label)
		if low.Balance.IsNegative() {
			lowest += "  " + cli.RenderWarning("overdrawn")
		}
		pairs = append(pairs, [2]string{"Lowest balance", lowest})
	}
	pairs = append(pairs,
		[2]string{"Entries", cli.FormatNumber(int64(len(p.Entries)))},
		[2]string{"Horizon", cli.FormatMonths(p.Months())},
	)
	return cli.RenderKV("", pairs)
}
