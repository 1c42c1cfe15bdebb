package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mydscvr/backend/internal/application/services"
	"github.com/spf13/cobra"
)

func newExplainCmd() *cobra.Command {
	var (
		now      string
		family   string
		keywords string
	)

	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Print the extracted intent and the strict/relaxed filters for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseNow(now)
			if err != nil {
				return err
			}

			var familyFlag *bool
			if family != "" {
				v, err := strconv.ParseBool(family)
				if err != nil {
					return fmt.Errorf("--family must be true or false")
				}
				familyFlag = &v
			}

			tables, err := services.LoadKeywordTables(keywords)
			if err != nil {
				return fmt.Errorf("load keyword tables: %w", err)
			}

			intent := services.NewQueryIntentService(tables, services.NewTemporalParser()).
				Extract(args[0], familyFlag, ref)
			plan := services.NewFilterCompiler(tables, 0, 0).Compile(intent, ref)

			return writeJSON(cmd.OutOrStdout(), services.Explanation{Intent: intent, Plan: plan})
		},
	}

	cmd.Flags().StringVar(&now, "now", "", "reference instant (RFC3339), defaults to now")
	cmd.Flags().StringVar(&family, "family", "", "explicit family_friendly flag (true|false)")
	cmd.Flags().StringVar(&keywords, "keywords", os.Getenv("SEARCH_KEYWORDS_PATH"), "keyword tables YAML, embedded tables when empty")
	return cmd
}
