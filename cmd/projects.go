package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/config"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/store"
)

var (
	flagCreateOpening     string
	flagCreateCurrency    string
	flagCreateMonths      int
	flagCreateDescription string
	flagCreateUse         bool
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage forecast projects",
	RunE:    runProjectsList,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectsList,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsCreate,
}

var projectsUseCmd = &cobra.Command{
	Use:   "use <project>",
	Short: "Make a project the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUse,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show [project]",
	Short: "Show a project's details",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectsShow,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project and its entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	projectsCreateCmd.Flags().StringVar(&flagCreateOpening, "opening", "0", "Opening balance, may be negative")
	projectsCreateCmd.Flags().StringVar(&flagCreateCurrency, "currency", "", "ISO 4217 code (default from config)")
	projectsCreateCmd.Flags().IntVar(&flagCreateMonths, "months", 12, "Forecast horizon in months")
	projectsCreateCmd.Flags().StringVar(&flagCreateDescription, "description", "", "Optional description")
	projectsCreateCmd.Flags().BoolVar(&flagCreateUse, "use", true, "Make the new project the default")

	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsUseCmd, projectsShowCmd, projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectsList(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	projects, err := st.ListProjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Println("\n  No projects yet.")
		fmt.Println("  Run `cashflowcast setup` or `cashflowcast sample` to get started.")
		return nil
	}

	current := projectRef()
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		marker := " "
		if p.ID == current || p.Name == current {
			marker = "*"
		}
		rows = append(rows, []string{
			marker + " " + truncate(p.Name, 24),
			shortID(p.ID),
			cli.FormatNumber(int64(len(p.Entries))),
			cli.RenderAmount(p.OpeningBalance, cli.FormatMoney(p.OpeningBalance, p.Currency)),
			cli.FormatMonths(p.Months()),
			cli.FormatUpdated(p.LastUpdated),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROJECTS"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "ID", "Entries", "Opening", "Horizon", "Updated"},
		Rows:    rows,
	}))
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("project name cannot be empty")
	}
	if flagCreateMonths < 1 {
		return fmt.Errorf("--months must be at least 1, got %d", flagCreateMonths)
	}
	opening, err := decimal.NewFromString(strings.TrimSpace(flagCreateOpening))
	if err != nil {
		return fmt.Errorf("--opening %q: not a number", flagCreateOpening)
	}
	code := flagCreateCurrency
	if code == "" {
		code = appConfig.Display.Currency
	}
	code, ok := forecast.NormalizeCurrency(code)
	if !ok {
		return fmt.Errorf("unknown currency %q", flagCreateCurrency)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if _, err := st.Project(cmd.Context(), name); err == nil {
		return fmt.Errorf("a project named %q already exists", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	p := model.Project{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    flagCreateDescription,
		OpeningBalance: opening,
		Currency:       code,
		HorizonMonths:  flagCreateMonths,
		LastUpdated:    time.Now(),
	}
	if err := st.SaveProject(cmd.Context(), p); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	fmt.Printf("  Created %s (%s)\n", p.Name, shortID(p.ID))

	if flagCreateUse {
		return setDefaultProject(p)
	}
	return nil
}

func runProjectsUse(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := st.Project(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return setDefaultProject(p)
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		flagProject = args[0]
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
	applyHorizon(&p, 0)

	income, expense := 0, 0
	for _, e := range p.Entries {
		if e.Type == model.Expense {
			expense++
		} else {
			income++
		}
	}
	window := forecast.PeriodStart(p.Entries, today)

	pairs := [][2]string{
		{"ID", p.ID},
		{"Name", p.Name},
	}
	if p.Description != "" {
		pairs = append(pairs, [2]string{"Description", p.Description})
	}
	pairs = append(pairs,
		[2]string{"Currency", p.Currency},
		[2]string{"Opening balance", cli.FormatMoney(p.OpeningBalance, p.Currency)},
		[2]string{"Horizon", cli.FormatMonths(p.Months())},
		[2]string{"Forecast starts", window.Format("Jan 2006")},
		[2]string{"Entries", fmt.Sprintf("%d income, %d expense", income, expense)},
		[2]string{"Last updated", cli.FormatUpdated(p.LastUpdated)},
	)

	fmt.Println()
	fmt.Print(cli.RenderKV(p.Name, pairs))
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := st.Project(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteProject(cmd.Context(), p.ID); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	fmt.Printf("  Deleted %s and %d entries\n", p.Name, len(p.Entries))

	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}
	if cfg.General.DefaultProject == p.ID || cfg.General.DefaultProject == p.Name {
		cfg.General.DefaultProject = ""
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println("  It was the default project; pick another with `cashflowcast projects use`.")
	}
	return nil
}

// setDefaultProject records p in the config file. Environment overrides are
// not written back.
func setDefaultProject(p model.Project) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}
	cfg.General.DefaultProject = p.ID
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Default project is now %s\n", p.Name)
	return nil
}
