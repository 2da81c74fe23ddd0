package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
)

// venueFile is the YAML input.  Counts use the same keys as the layout API.
//
//	topRows: 2
//	topCols: 8
//	innerRing: 12
//	statuses: {T-1: booked}
//	pricing: {small: 50000, medium: 80000, large: 120000, vatRate: 0.15, serviceFee: 5000}
type venueFile struct {
	floorplan.Counts `yaml:",inline"`
	Statuses         map[string]string `yaml:"statuses"`
	Pricing          *priceFile        `yaml:"pricing"`
}

type priceFile struct {
	Small      int64   `yaml:"small"`
	Medium     int64   `yaml:"medium"`
	Large      int64   `yaml:"large"`
	VATRate    float64 `yaml:"vatRate"`
	ServiceFee int64   `yaml:"serviceFee"`
}

func (v venueFile) table() pricing.Table {
	if v.Pricing == nil {
		return pricing.DefaultTable()
	}
	return pricing.Table{
		Prices: map[floorplan.Size]int64{
			floorplan.SizeSmall:  v.Pricing.Small,
			floorplan.SizeMedium: v.Pricing.Medium,
			floorplan.SizeLarge:  v.Pricing.Large,
		},
		VATRate:    v.Pricing.VATRate,
		ServiceFee: v.Pricing.ServiceFee,
	}
}

func loadVenue(path string) (venueFile, error) {
	var v venueFile
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stallmap",
		Short:         "Render book-fair floor plans and price stall selections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "venue.yaml", "YAML venue file")
	root.AddCommand(newRenderCmd(), newSummaryCmd())
	return root
}
