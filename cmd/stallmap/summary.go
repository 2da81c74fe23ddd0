package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/selection"
)

func newSummaryCmd() *cobra.Command {
	var (
		stalls  []string
		maxHeld int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the price breakdown for a set of stalls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			v, err := loadVenue(path)
			if err != nil {
				return err
			}
			layout, err := floorplan.Generate(v.Counts)
			if err != nil {
				return err
			}

			// run the stalls through a selection so the hold limit applies
			sel := selection.New(layout.IDs(), maxHeld)
			for _, id := range stalls {
				if _, err := sel.Toggle(id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
			}
			sum, err := v.table().Summarize(layout, sel.Held())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STALL\tHALL\tSIZE\tPRICE")
			for _, l := range sum.Lines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", l.StallID, l.Hall, l.Size, l.UnitPrice)
			}
			fmt.Fprintf(w, "\t\tSubtotal\t%d\n", sum.Subtotal)
			fmt.Fprintf(w, "\t\tVAT\t%d\n", sum.VAT)
			fmt.Fprintf(w, "\t\tService fee\t%d\n", sum.ServiceFee)
			fmt.Fprintf(w, "\t\tTotal\t%d\n", sum.Total)
			return w.Flush()
		},
	}
	cmd.Flags().StringArrayVarP(&stalls, "stall", "s", nil, "stall ID, repeatable")
	cmd.Flags().IntVar(&maxHeld, "max", selection.DefaultMaxHeld, "maximum stalls per selection")
	return cmd
}
