// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/nmr-reporter/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Persist, query and export parsed spectra",
	Long: `Store keeps parsed spectra in a local SQLite database (nmr.db in the
store directory). Use subcommands to ingest documents, query signals, or
export them.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest <document>...",
	Short: "Parse documents and save their spectra",
	Long: `Ingest parses every spectrum of each document and saves it. Documents
unchanged since their last ingest are skipped; a changed document replaces
the spectra it saved before.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(cmd.Context(), args, loadSpectra, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed ingest", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored signals by cypher, field code or text",
	Args:  cobra.NoArgs,
	RunE:  runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd)
	if opts.IsEmpty() {
		return fmt.Errorf("filter required: provide --cypher, --code or --contains")
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-12s  %-4s  %s\n", "Spectrum", "#", "Signal")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, r := range results {
		cypher := r.Cypher
		if c := []rune(cypher); len(c) > 12 {
			cypher = string(c[:9]) + "..."
		}
		fmt.Fprintf(w, "%-12s  %-4d  %s\n", cypher, r.Index+1, r.Text)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored spectra to YAML or JSON",
	Long: `Export writes the stored spectra (or the signals matching the query
flags) to standard output or to the file given with -o.`,
	Args: cobra.NoArgs,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	w := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	opts := queryOptsFromFlags(cmd)
	switch format {
	case "yaml", "":
		err = s.ExportYAML(cmd.Context(), w, opts)
	case "json":
		err = s.ExportJSON(cmd.Context(), w, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", outPath)
	}
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	sc := cfg.Store
	if dir, _ := cmd.Flags().GetString("store-dir"); dir != "" {
		sc.Dir = dir
	}
	return store.New(sc)
}

func queryOptsFromFlags(cmd *cobra.Command) store.QueryOptions {
	cypher, _ := cmd.Flags().GetString("cypher")
	code, _ := cmd.Flags().GetString("code")
	contains, _ := cmd.Flags().GetString("contains")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Cypher:     cypher,
		Code:       code,
		Contains:   contains,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "", "directory holding nmr.db (default from config)")

	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().String("cypher", "", "filter by spectrum cypher")
		c.Flags().String("code", "", "keep signals with a value for this field code (e.g. %j)")
		c.Flags().String("contains", "", "keep signals whose text, or --code value, contains this")
		c.Flags().Int("limit", 0, "maximum signals (0 = default)")
	}
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().StringP("output", "o", "", "write to this file instead of standard output")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
