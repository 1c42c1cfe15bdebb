// Command searchctl inspects the search pipeline offline: how a query is
// understood and which date bounds a named range resolves to.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "searchctl",
		Short:         "Inspect query understanding and date ranges",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExplainCmd(), newRangeCmd())
	return root
}

// parseNow reads an RFC3339 --now flag; empty means the wall clock
func parseNow(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be RFC3339: %w", err)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
