// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/nmr-reporter/internal/document"
	"github.com/pdiddy/nmr-reporter/internal/report"
	"github.com/pdiddy/nmr-reporter/internal/store"
	"github.com/pdiddy/nmr-reporter/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <document>",
	Short: "Parse every spectrum of a document and print the signals",
	Long: `Parse reads the document's "Input format:" paragraph, parses every
"Spectrum:" paragraph through it and prints the signals as a summary table,
YAML or JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	spectra, err := loadSpectra(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format := cfg.Output
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		format = types.OutputFormat(f)
	}
	return printSpectra(cmd.OutOrStdout(), spectra, format)
}

func reportOptions() report.Options {
	return report.Options{Parser: cfg.Parser, Logger: &logger}
}

// loadSpectra parses the document at path into its serializable spectra.
func loadSpectra(ctx context.Context, path string) ([]types.Spectrum, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, err := document.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := report.Load(ctx, doc, reportOptions())
	if err != nil {
		return nil, err
	}
	out := make([]types.Spectrum, 0, len(r.Spectra))
	for _, s := range r.Spectra {
		sp := store.FromSpectrum(s)
		sp.Source = path
		out = append(out, sp)
	}
	return out, nil
}

func printSpectra(w io.Writer, spectra []types.Spectrum, format types.OutputFormat) error {
	switch format {
	case types.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(spectra)
	case types.OutputYAML:
		data, err := yaml.Marshal(spectra)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case types.OutputSummary, "":
	default:
		return fmt.Errorf("unsupported format %q: use summary, yaml or json", format)
	}

	signals := 0
	for _, sp := range spectra {
		fmt.Fprintf(w, "Spectrum %s\n", sp.Cypher)
		for _, code := range sortedKeys(sp.Head) {
			fmt.Fprintf(w, "  %s = %s\n", code, sp.Head[code])
		}
		fmt.Fprintf(w, "  %-4s  %-30s  %s\n", "#", "Hypothesis", "Fields")
		fmt.Fprintln(w, "  "+strings.Repeat("-", 70))
		for _, sig := range sp.Signals {
			hyp := sig.Hypothesis
			if r := []rune(hyp); len(r) > 30 {
				hyp = string(r[:27]) + "..."
			}
			var fields []string
			for _, code := range sortedKeys(sig.Fields) {
				fields = append(fields, code+"="+sig.Fields[code])
			}
			fmt.Fprintf(w, "  %-4d  %-30s  %s\n", sig.Index+1, hyp, strings.Join(fields, " "))
		}
		signals += len(sp.Signals)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d spectra, %d signals\n", len(spectra), signals)
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	parseCmd.Flags().String("format", "", "output format: summary, yaml or json (default from config)")
	rootCmd.AddCommand(parseCmd)
}
