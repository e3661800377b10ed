// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/nmr-reporter/internal/document"
	"github.com/pdiddy/nmr-reporter/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run <document>",
	Short: "Perform the document's tasks and write the result",
	Long: `Run parses every spectrum of the document, then performs the tasks
listed in its "Task:" paragraph:

  reassign  replace assignments using the "Assignments:" tables
  convert   write the spectra through the "Output format:" template

Without convert the spectra are written back through the input format.
The output document must differ from the input.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	in := args[0]
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return fmt.Errorf("an output document is required: use -o")
	}
	same, err := samePath(in, out)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("refusing to overwrite the input document %s", in)
	}

	doc, err := document.ReadFile(in)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	sum, err := report.Run(cmd.Context(), doc, &buf, reportOptions())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "spectra: %d, signals: %d, reassigned: %d, skipped: %d, converted: %t\n",
		sum.Spectra, sum.Signals, sum.Reassigned, sum.Skipped, sum.Converted)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	return nil
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) (bool, error) {
	ai, aerr := os.Stat(a)
	bi, berr := os.Stat(b)
	if aerr == nil && berr == nil {
		return os.SameFile(ai, bi), nil
	}
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func init() {
	runCmd.Flags().StringP("output", "o", "", "output document")
	rootCmd.AddCommand(runCmd)
}
