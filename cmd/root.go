// Package cmd implements the cashflowcast CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/config"
	"github.com/theirongolddev/cashflowcast/internal/logging"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/store"
)

var (
	flagDBPath   string
	flagProject  string
	flagToday    string
	flagQuiet    bool
	flagLogLevel string
)

// Resolved by the root PersistentPreRunE before any command runs.
var (
	appConfig config.Config
	logger    = logrus.StandardLogger()
)

var rootCmd = &cobra.Command{
	Use:   "cashflowcast",
	Short: "Month-by-month cash-flow forecasts",
	Long: "Project a balance forward from recurring incomes and expenses:\n" +
		"paychecks, rent, subscriptions, anything that repeats.",
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	RunE:              runForecast,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (default $XDG_DATA_HOME/cashflowcast/cashflowcast.db)")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Project ID or name (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagToday, "today", "", "Forecast as if today were YYYY-MM-DD")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadRuntime loads .env and the config file, applies flag overrides and
// builds the logger.
func loadRuntime(_ *cobra.Command, _ []string) error {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		cfg.General.DBPath = flagDBPath
	}

	level := cfg.General.LogLevel
	switch {
	case flagLogLevel != "":
		level = flagLogLevel
	case flagQuiet:
		level = "warn"
	}

	appConfig = cfg
	logger = logging.New(level, logging.FormatText)
	if err := cli.SetLocale(cfg.Display.Locale); err != nil {
		logger.WithError(err).Warn("keeping default locale")
	}
	return nil
}

func openStore() (*store.Store, error) {
	path := appConfig.DBPath()
	logging.Component(logger, "store").WithField("path", path).Debug("opening database")

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

// projectRef is the project selected by --project or the config default.
func projectRef() string {
	if flagProject != "" {
		return flagProject
	}
	return appConfig.General.DefaultProject
}

func activeProject(ctx context.Context, st *store.Store) (model.Project, error) {
	ref := projectRef()
	if ref == "" {
		return model.Project{}, errors.New("no project selected: pass --project or run `cashflowcast projects use`")
	}

	p, err := st.Project(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return model.Project{}, fmt.Errorf("project %q not found: see `cashflowcast projects list`", ref)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("loading project %q: %w", ref, err)
	}
	return p, nil
}

func resolveToday() (calendar.Date, error) {
	if flagToday == "" {
		return calendar.Today(), nil
	}
	d, err := calendar.Parse(flagToday)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("--today: %w", err)
	}
	return d, nil
}

// applyHorizon sets p's horizon from the first positive override: the
// command flag, then the config.
func applyHorizon(p *model.Project, flagMonths int) {
	switch {
	case flagMonths > 0:
		p.HorizonMonths = flagMonths
	case appConfig.General.HorizonMonths > 0:
		p.HorizonMonths = appConfig.General.HorizonMonths
	}
}

// progress prints a status line to stderr unless --quiet.
func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}
