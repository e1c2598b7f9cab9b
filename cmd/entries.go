package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/form"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/recurrence"
)

// entryFlags are shared by `entries add` and `entries edit`.
type entryFlags struct {
	label  string
	typ    string
	amount string
	start  string
	end    string
	repeat string
	notes  string
}

var (
	flagAdd  entryFlags
	flagEdit entryFlags
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"entry"},
	Short:   "List and edit the active project's entries",
	RunE:    runEntriesList,
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries",
	RunE:  runEntriesList,
}

var entriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry",
	Example: `  cashflowcast entries add --label Rent --type expense --amount 1450 --start 2025-02-01 --repeat monthly:1
  cashflowcast entries add --label Paycheck --amount 2200 --repeat biweekly`,
	RunE: runEntriesAdd,
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit <entry>",
	Short: "Change fields of an entry (by ID, ID prefix or label)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesEdit,
}

var entriesRemoveCmd = &cobra.Command{
	Use:     "remove <entry>",
	Aliases: []string{"rm"},
	Short:   "Remove an entry (by ID, ID prefix or label)",
	Args:    cobra.ExactArgs(1),
	RunE:    runEntriesRemove,
}

func init() {
	bindEntryFlags(entriesAddCmd.Flags(), &flagAdd)
	bindEntryFlags(entriesEditCmd.Flags(), &flagEdit)

	entriesCmd.AddCommand(entriesListCmd, entriesAddCmd, entriesEditCmd, entriesRemoveCmd)
	rootCmd.AddCommand(entriesCmd)
}

func bindEntryFlags(fs *pflag.FlagSet, f *entryFlags) {
	fs.StringVar(&f.label, "label", "", "Entry label")
	fs.StringVar(&f.typ, "type", "income", "income or expense")
	fs.StringVar(&f.amount, "amount", "", "Amount, non-negative")
	fs.StringVar(&f.start, "start", "", "First date YYYY-MM-DD (default today)")
	fs.StringVar(&f.end, "end", "", "Last date YYYY-MM-DD, empty for open-ended")
	fs.StringVar(&f.repeat, "repeat", "monthly", "Recurrence: daily, weekly, biweekly, x-weekly:N, monthly[:DAY], yearly, every-x-days:N")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
}

func runEntriesList(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := activeProject(cmd.Context(), st)
	if err != nil {
		return err
	}
	if len(p.Entries) == 0 {
		fmt.Printf("\n  %s has no entries yet.\n", p.Name)
		fmt.Println("  Add one with `cashflowcast entries add`.")
		return nil
	}

	rows := make([][]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		end := "open"
		if e.EndDate != nil {
			end = e.EndDate.String()
		}
		rows = append(rows, []string{
			shortID(e.ID),
			truncate(e.Label, 28),
			string(e.Type),
			cli.RenderAmount(e.Signed(), cli.FormatMoney(e.Amount, p.Currency)),
			recurrence.Describe(e.Recurrence),
			e.StartDate.String(),
			end,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ENTRIES  %s", p.Name)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Label", "Type", "Amount", "Repeats", "Start", "End"},
		Rows:    rows,
	}))
	return nil
}

func runEntriesAdd(cmd *cobra.Command, _ []string) error {
	if flagAdd.amount == "" {
		return errors.New("--amount is required")
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

	state := form.Blank(today)
	all := func(string) bool { return true }
	if err := applyEntryFlags(&state, flagAdd, all); err != nil {
		return err
	}
	e, err := state.Entry(p)
	if err != nil {
		return err
	}
	if err := st.SaveEntry(cmd.Context(), p.ID, e); err != nil {
		return fmt.Errorf("saving entry: %w", err)
	}

	fmt.Printf("  Added %s (%s) to %s\n", e.Label, shortID(e.ID), p.Name)
	return nil
}

func runEntriesEdit(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := activeProject(cmd.Context(), st)
	if err != nil {
		return err
	}
	e, err := findEntry(p.Entries, args[0])
	if err != nil {
		return err
	}

	state := form.FromEntry(e)
	if err := applyEntryFlags(&state, flagEdit, cmd.Flags().Changed); err != nil {
		return err
	}
	updated, err := state.Entry(p)
	if err != nil {
		return err
	}
	if err := st.SaveEntry(cmd.Context(), p.ID, updated); err != nil {
		return fmt.Errorf("saving entry: %w", err)
	}

	fmt.Printf("  Updated %s (%s)\n", updated.Label, shortID(updated.ID))
	return nil
}

func runEntriesRemove(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := activeProject(cmd.Context(), st)
	if err != nil {
		return err
	}
	e, err := findEntry(p.Entries, args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteEntry(cmd.Context(), p.ID, e.ID); err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}

	fmt.Printf("  Removed %s (%s)\n", e.Label, shortID(e.ID))
	return nil
}

// applyEntryFlags copies the flags selected by changed into s, validating
// each value the way the entry form does.
func applyEntryFlags(s *form.State, f entryFlags, changed func(name string) bool) error {
	if changed("label") {
		s.Label = f.label
	}
	if changed("type") {
		switch strings.ToLower(strings.TrimSpace(f.typ)) {
		case string(model.Income):
			s.Type = model.Income
		case string(model.Expense):
			s.Type = model.Expense
		default:
			return fmt.Errorf("--type %q: must be income or expense", f.typ)
		}
	}
	if changed("amount") {
		if err := checkAmount(f.amount); err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		s.Amount = f.amount
	}
	if changed("start") && f.start != "" {
		if _, err := calendar.Parse(f.start); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		s.StartDate = f.start
	}
	if changed("end") {
		if f.end != "" {
			if _, err := calendar.Parse(f.end); err != nil {
				return fmt.Errorf("--end: %w", err)
			}
		}
		s.EndDate = f.end
	}
	if changed("repeat") {
		rule, err := recurrence.ParseSpec(f.repeat)
		if err != nil {
			return fmt.Errorf("--repeat: %w", err)
		}
		s.RecurrenceKind = rule.Kind
		s.Interval = strconv.Itoa(rule.Interval)
		s.DayOfMonth = strconv.Itoa(rule.DayOfMonth)
	}
	if changed("notes") {
		s.Notes = f.notes
	}
	return nil
}

func checkAmount(text string) error {
	v, err := form.ParseDecimal(text)
	if err != nil {
		return fmt.Errorf("%q is not a number", strings.TrimSpace(text))
	}
	if v.IsNegative() {
		return errors.New("amount cannot be negative")
	}
	return nil
}

// findEntry resolves ref as an exact ID, a unique ID prefix or a unique
// case-insensitive label.
func findEntry(entries []model.Entry, ref string) (model.Entry, error) {
	ref = strings.TrimSpace(ref)
	for _, e := range entries {
		if e.ID == ref {
			return e, nil
		}
	}

	var matches []model.Entry
	for _, e := range entries {
		if strings.HasPrefix(e.ID, ref) || strings.EqualFold(e.Label, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return model.Entry{}, fmt.Errorf("no entry matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Entry{}, fmt.Errorf("%q matches %d entries; use the ID", ref, len(matches))
	}
}
