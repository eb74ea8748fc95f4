// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperxai/internal/archive"
	"github.com/pdiddy/paperxai/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived reports (list, search, show, export)",
	Long: `History reads the report archive at archive.path. Every successful report
run is archived when archive.enabled is true.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	sums, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, sums)
	}
	if len(sums) == 0 {
		fmt.Println("No reports archived.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-12s  %-8s  %s\n", "ID", "Created", "Since", "Sections", "Questions")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 92))
	for _, s := range sums {
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-12s  %-8d  %d\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.OldestPaperDate, s.Sections, s.Questions)
	}
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search archived questions and responses",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	hits, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, hits)
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for _, h := range hits {
		resp := strings.Join(strings.Fields(h.Response), " ")
		if len(resp) > 120 {
			resp = resp[:117] + "..."
		}
		fmt.Fprintf(os.Stdout, "%s  %s  [%s]\n  Q: %s\n  A: %s\n\n",
			h.ReportID[:8], h.CreatedAt.Format("2006-01-02"), h.Section, h.Question, resp)
	}
	fmt.Fprintf(os.Stdout, "%d results\n", len(hits))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Render an archived report",
	Long: `Show renders the archived report with the given id (or unique id prefix)
as console text, an HTML fragment, or Markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Show(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	out, err := report.Render(rec.Report, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Report %s (%s), papers since %s\n\n",
		rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.OldestPaperDate)
	_, err = io.WriteString(os.Stdout, out)
	return err
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export archived reports to YAML or JSON",
	Long: `Export writes one archived report, or all of them when no id is given,
to stdout or to --output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	id := ""
	if len(args) > 0 {
		id = args[0]
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = store.ExportYAML(cmd.Context(), w, id)
	case "json":
		err = store.ExportJSON(cmd.Context(), w, id)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintln(os.Stderr, "Exported to", output)
	}
	return nil
}

// --- shared helpers ---

func openArchive() (*archive.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return archive.Open(cfg.Archive.Path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historySearchCmd} {
		c.Flags().Int("limit", 20, "maximum results")
		c.Flags().Bool("json", false, "output results as JSON")
	}
	historyShowCmd.Flags().String("format", report.FormatConsole, "render format: console, html, markdown")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
