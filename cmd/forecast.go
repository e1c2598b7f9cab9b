package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/store"
)

var (
	flagForecastMonths int
	flagForecastJSON   bool
	flagForecastAll    bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Month-by-month balance forecast",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVar(&flagForecastMonths, "months", 0, "Override the project's horizon")
	forecastCmd.Flags().BoolVar(&flagForecastJSON, "json", false, "Print JSON instead of a table")
	forecastCmd.Flags().BoolVar(&flagForecastAll, "all", false, "Forecast every project")
	rootCmd.AddCommand(forecastCmd)
}

type forecastOutput struct {
	ProjectID string                `json:"projectId"`
	Project   string                `json:"project"`
	Currency  string                `json:"currency"`
	Today     calendar.Date         `json:"today"`
	Summary   model.ForecastSummary `json:"summary"`
	Rows      []model.ForecastRow   `json:"rows"`
	Truncated []forecast.Truncation `json:"truncated,omitempty"`
}

func runForecast(cmd *cobra.Command, _ []string) error {
	today, err := resolveToday()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if flagForecastAll {
		return runForecastAll(cmd.Context(), st, today)
	}

	p, err := activeProject(cmd.Context(), st)
	if err != nil {
		return err
	}
	applyHorizon(&p, flagForecastMonths)

	res := forecast.Generate(p, today)
	summary := forecast.Summarise(res.Rows, p.OpeningBalance)
	warnTruncated(p.Name, res.Truncated)

	if flagForecastJSON {
		return writeJSON(os.Stdout, newForecastOutput(p, today, res, summary))
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(forecastHeading(p, res.Rows, today)))
	fmt.Println()
	fmt.Print(cli.RenderTable(forecastTable(res.Rows, p.Currency)))
	fmt.Println()
	fmt.Print(summaryKV(p, res.Rows, summary))
	return nil
}

func runForecastAll(ctx context.Context, st *store.Store, today calendar.Date) error {
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Println("\n  No projects yet.")
		fmt.Println("  Run `cashflowcast setup` or `cashflowcast sample` to get started.")
		return nil
	}
	for i := range projects {
		applyHorizon(&projects[i], flagForecastMonths)
	}

	results, err := forecast.GenerateAll(ctx, projects, today, func(current, total int) {
		progress("\r  Forecasting [%d/%d]", current, total)
	})
	progress("\r%s\r", "                              ")
	if err != nil {
		return err
	}

	if flagForecastJSON {
		out := make([]forecastOutput, len(results))
		for i, r := range results {
			out[i] = newForecastOutput(r.Project, today, r.Result, r.Summary)
		}
		return writeJSON(os.Stdout, out)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		warnTruncated(r.Project.Name, r.Result.Truncated)
		cur := r.Project.Currency
		lowest := "-"
		if low, ok := forecast.LowestBalance(r.Result.Rows); ok {
			lowest = cli.RenderAmount(low.Balance, cli.FormatMoney(low.Balance, cur)) + " " + low.Label
		}
		rows = append(rows, []string{
			truncate(r.Project.Name, 24),
			cli.FormatMonths(r.Project.Months()),
			cli.FormatMoney(r.Summary.TotalIncome, cur),
			cli.FormatMoney(r.Summary.TotalExpense, cur),
			cli.RenderAmount(r.Summary.EndingBalance, cli.FormatMoney(r.Summary.EndingBalance, cur)),
			lowest,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ALL PROJECTS  from %s", today.Format("Jan 2006"))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Horizon", "Income", "Expenses", "Ending", "Lowest"},
		Rows:    rows,
	}))
	return nil
}

// forecastHeading names the month the forecast actually starts in, which
// is earlier than today's when an entry started before this month.
func forecastHeading(p model.Project, rows []model.ForecastRow, today calendar.Date) string {
	start := today
	if len(rows) > 0 {
		start = rows[0].PeriodStart
	}
	return fmt.Sprintf("FORECAST  %s  %s from %s", p.Name, cli.FormatMonths(len(rows)), start.Format(forecast.LabelLayout))
}

func forecastTable(rows []model.ForecastRow, cur string) cli.Table {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Label,
			cli.FormatMoney(r.Incomes, cur),
			cli.FormatMoney(r.Expenses, cur),
			cli.RenderAmount(r.Net, cli.FormatSignedMoney(r.Net, cur)),
			cli.RenderAmount(r.Balance, cli.FormatMoney(r.Balance, cur)),
		})
	}
	return cli.Table{
		Headers: []string{"Month", "Income", "Expenses", "Net", "Balance"},
		Rows:    out,
	}
}

func newForecastOutput(p model.Project, today calendar.Date, res forecast.Result, summary model.ForecastSummary) forecastOutput {
	rows := res.Rows
	if rows == nil {
		rows = []model.ForecastRow{}
	}
	return forecastOutput{
		ProjectID: p.ID,
		Project:   p.Name,
		Currency:  p.Currency,
		Today:     today,
		Summary:   summary,
		Rows:      rows,
		Truncated: res.Truncated,
	}
}

func warnTruncated(project string, truncated []forecast.Truncation) {
	for _, t := range truncated {
		logger.WithFields(logrus.Fields{
			"project": project,
			"entry":   t.Label,
			"guard":   t.Guard,
		}).Warn("entry stopped early; its occurrences may be incomplete")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
