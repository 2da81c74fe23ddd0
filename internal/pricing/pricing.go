// Package pricing computes the cost breakdown shown before a publisher
// confirms the stalls they hold.  All amounts are whole currency units.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
)

// ErrEmptySelection is returned when a summary is requested with no stalls.
var ErrEmptySelection = errors.New("no stalls selected")

// Table is the fixed three-tier price list plus the charges added on top of
// the stall prices.
type Table struct {
	Prices     map[floorplan.Size]int64 `json:"prices"`
	VATRate    float64                  `json:"vat_rate"`
	ServiceFee int64                    `json:"service_fee"`
}

// DefaultTable is the published price list.
func DefaultTable() Table {
	return Table{
		Prices: map[floorplan.Size]int64{
			floorplan.SizeSmall:  50000,
			floorplan.SizeMedium: 80000,
			floorplan.SizeLarge:  120000,
		},
		VATRate:    0.15,
		ServiceFee: 5000,
	}
}

// Price returns the unit price of a size class.
func (t Table) Price(size floorplan.Size) (int64, error) {
	p, ok := t.Prices[size]
	if !ok {
		return 0, fmt.Errorf("no price for stall size %q", size)
	}
	return p, nil
}

// LineItem is one held stall in the summary.
type LineItem struct {
	StallID   string         `json:"stall_id"`
	Size      floorplan.Size `json:"size"`
	Hall      string         `json:"hall"`
	UnitPrice int64          `json:"unit_price"`
}

// Summary is the derived cost breakdown.  It is never stored.
type Summary struct {
	Lines      []LineItem `json:"lines"`
	Subtotal   int64      `json:"subtotal"`
	VAT        int64      `json:"vat"`
	ServiceFee int64      `json:"service_fee"`
	Total      int64      `json:"total"`
}

// StallIDs lists the stalls in the summary in line order.
func (s Summary) StallIDs() []string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.StallID
	}
	return out
}

// Summarize prices the given stalls of a layout, in the given order.
func (t Table) Summarize(layout floorplan.Layout, stallIDs []string) (Summary, error) {
	if len(stallIDs) == 0 {
		return Summary{}, ErrEmptySelection
	}
	sum := Summary{Lines: make([]LineItem, 0, len(stallIDs)), ServiceFee: t.ServiceFee}
	for _, id := range stallIDs {
		shape, ok := layout.Find(id)
		if !ok {
			return Summary{}, fmt.Errorf("stall %s is not part of the layout", id)
		}
		price, err := t.Price(shape.Size())
		if err != nil {
			return Summary{}, err
		}
		sum.Lines = append(sum.Lines, LineItem{StallID: id, Size: shape.Size(), Hall: shape.Hall(), UnitPrice: price})
		sum.Subtotal += price
	}
	sum.VAT = int64(math.Round(float64(sum.Subtotal) * t.VATRate))
	sum.Total = sum.Subtotal + sum.VAT + sum.ServiceFee
	return sum, nil
}
