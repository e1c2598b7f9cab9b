package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/sample"
)

var flagSampleUse bool

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Create (or reset) the sample household project",
	RunE:  runSample,
}

func init() {
	sampleCmd.Flags().BoolVar(&flagSampleUse, "use", false, "Make the sample the default project even if one is set")
	rootCmd.AddCommand(sampleCmd)
}

func runSample(cmd *cobra.Command, _ []string) error {
	today, err := resolveToday()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p := sample.Project(today)
	if err := st.SaveProject(cmd.Context(), p); err != nil {
		return fmt.Errorf("saving sample project: %w", err)
	}
	fmt.Printf("  Saved %s with %d entries (%s)\n", p.Name, len(p.Entries), cli.FormatMoney(p.OpeningBalance, p.Currency))

	if flagSampleUse || appConfig.General.DefaultProject == "" {
		return setDefaultProject(p)
	}
	return nil
}
