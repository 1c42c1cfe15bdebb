package main

import (
	"errors"
	"time"

	"github.com/mydscvr/backend/pkg/dateutil"
	"github.com/spf13/cobra"
)

type rangeOutput struct {
	Range     dateutil.NamedRange `json:"range"`
	Recurring bool                `json:"recurring"`
	Start     *time.Time          `json:"start,omitempty"`
	End       *time.Time          `json:"end,omitempty"`
}

func newRangeCmd() *cobra.Command {
	var now string

	cmd := &cobra.Command{
		Use:   "range <named-range>",
		Short: "Print the UTC bounds of a named date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseNow(now)
			if err != nil {
				return err
			}
			r, err := dateutil.ParseNamedRange(args[0])
			if err != nil {
				return err
			}

			out := rangeOutput{Range: r}
			start, end, err := dateutil.RangeFor(r, ref)
			switch {
			case errors.Is(err, dateutil.ErrRecurringRange):
				out.Recurring = true
			case err != nil:
				return err
			default:
				out.Start, out.End = &start, &end
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&now, "now", "", "reference instant (RFC3339), defaults to now")
	return cmd
}
