package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/store"
)

var flagImportReplace bool

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the active project's entries as JSON (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Read entries from JSON (stdin by default) into the active project",
	Long: "Accepts the document written by `export` or a bare JSON array of entries.\n" +
		"Entries are merged by ID unless --replace is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportReplace, "replace", false, "Replace all existing entries")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := activeProject(cmd.Context(), st)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if len(args) == 1 {
		f, err := os.OpenFile(args[0], os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := store.EncodeEntries(w, p.Entries); err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}
	if len(args) == 1 {
		progress("  Exported %d entries from %s to %s\n", len(p.Entries), p.Name, args[0])
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) == 1 {
		//nolint:gosec // import path is chosen by the local user
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	entries, err := store.DecodeEntries(r)
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

	entries = adoptEntries(entries, p)

	if flagImportReplace {
		p.Entries = entries
		if err := st.SaveProject(cmd.Context(), p); err != nil {
			return fmt.Errorf("saving project: %w", err)
		}
		fmt.Printf("  Replaced %s's entries with %d imported\n", p.Name, len(entries))
		return nil
	}

	for _, e := range entries {
		if err := st.SaveEntry(cmd.Context(), p.ID, e); err != nil {
			return fmt.Errorf("saving entry %q: %w", e.Label, err)
		}
	}
	fmt.Printf("  Imported %d entries into %s\n", len(entries), p.Name)
	return nil
}

// adoptEntries gives imported entries without a currency the project's.
func adoptEntries(entries []model.Entry, p model.Project) []model.Entry {
	out := make([]model.Entry, len(entries))
	for i, e := range entries {
		if e.Currency == "" {
			e.Currency = p.Currency
		}
		out[i] = e
	}
	return out
}
