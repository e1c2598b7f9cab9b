package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/config"
	"github.com/theirongolddev/cashflowcast/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	today, err := resolveToday()
	if err != nil {
		return err
	}

	// Start from the file alone so env overrides are not persisted.
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if n, err := st.ProjectCount(cmd.Context()); err == nil && n > 0 {
		fmt.Printf("\n  %d project(s) already in %s\n\n", n, st.Path())
	}

	vals := tui.DefaultSetupValues(cfg)
	if err := tui.NewSetupForm(vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	p, _, err := tui.ApplySetup(cmd.Context(), st, cfg, *vals, today)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Created %s with %d entries\n", p.Name, len(p.Entries))
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `cashflowcast tui` for the dashboard or `cashflowcast` for a quick forecast.")
	fmt.Println()
	return nil
}
