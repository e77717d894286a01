package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type outputMode int

const (
	outputPlain outputMode = iota
	outputTable
	outputJSON
)

// resolveOutputMode maps the --output flag value to a mode. "auto" renders a
// table on an interactive terminal and plain one-value-per-line output
// otherwise, so piped invocations stay scriptable.
func resolveOutputMode(value string) (outputMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		if stdoutIsTerminal() {
			return outputTable, nil
		}
		return outputPlain, nil
	case "plain":
		return outputPlain, nil
	case "table":
		return outputTable, nil
	case "json":
		return outputJSON, nil
	default:
		return outputPlain, fmt.Errorf("unknown output mode %q (expected auto, plain, table, or json)", value)
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", "auto", "Output mode: auto, plain, table, or json")
}

// renderList prints a single-column listing in the requested mode.
func renderList(cmd *cobra.Command, mode string, header string, values []string) error {
	resolved, err := resolveOutputMode(mode)
	if err != nil {
		return err
	}
	switch resolved {
	case outputJSON:
		return writeJSON(cmd, values)
	case outputTable:
		rows := make([][]string, 0, len(values))
		for _, value := range values {
			rows = append(rows, []string{value})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{header}, rows))
		return nil
	default:
		for _, value := range values {
			fmt.Fprintln(cmd.OutOrStdout(), value)
		}
		return nil
	}
}
