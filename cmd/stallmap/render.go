package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
)

func newRenderCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the floor plan as SVG",
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
			svg := floorplan.RenderSVG(layout, v.Statuses, floorplan.DefaultPalette)
			if out == "" || out == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), svg)
				return err
			}
			if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
				return err
			}
			log.WithFields(log.Fields{"stalls": len(layout.Shapes), "out": out}).Info("floor plan written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}
