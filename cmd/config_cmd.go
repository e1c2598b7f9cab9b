package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	orUnset := func(s string) string {
		if s == "" {
			return cli.RenderMuted("not set")
		}
		return s
	}
	horizon := cli.RenderMuted("per project")
	if cfg.General.HorizonMonths > 0 {
		horizon = cli.FormatMonths(cfg.General.HorizonMonths)
	}

	fmt.Print(cli.RenderKV("[general]", [][2]string{
		{"Default project", orUnset(cfg.General.DefaultProject)},
		{"Database", cfg.DBPath()},
		{"Horizon override", horizon},
		{"Log level", cfg.General.LogLevel},
	}))
	fmt.Println()

	fmt.Print(cli.RenderKV("[display]", [][2]string{
		{"Currency", cfg.Display.Currency},
		{"Theme", cfg.Display.Theme},
	}))
	fmt.Println()

	amqp := cli.RenderMuted("disabled")
	if cfg.Daemon.AMQPURL != "" {
		amqp = fmt.Sprintf("exchange %s, queue %s", cfg.Daemon.AMQPExchange, cfg.Daemon.AMQPQueue)
	}
	fmt.Print(cli.RenderKV("[daemon]", [][2]string{
		{"Address", cfg.Daemon.Addr},
		{"Poll interval", cfg.Daemon.PollInterval().String()},
		{"Events buffer", cli.FormatNumber(int64(cfg.Daemon.EventsBuffer))},
		{"Rollover", cfg.Daemon.RolloverCron},
		{"AMQP", amqp},
	}))
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Println(cli.RenderWarning("  " + err.Error()))
		fmt.Println()
	}

	fmt.Println("  Run `cashflowcast setup` to reconfigure.")
	return nil
}
