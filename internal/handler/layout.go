package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/layoutsource"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
	"github.com/iliyamo/bookfair-stall-reservation/internal/selection"
)

// Allocations lists the allocated stalls of a book fair with the status of
// the reservation holding each.
type Allocations interface {
	Allocations(ctx context.Context, bookFairID string) (map[string]string, error)
}

// PublicHandler serves the read-only floor plan and price list.
type PublicHandler struct {
	Source      layoutsource.Source
	Allocations Allocations // optional
	Pricing     pricing.Table
	Palette     floorplan.Palette
	MaxHeld     int
}

type layoutResp struct {
	BookFairID string                      `json:"book_fair_id"`
	Counts     floorplan.Counts            `json:"counts"`
	Width      float64                     `json:"width"`
	Height     float64                     `json:"height"`
	Shapes     []floorplan.Shape           `json:"shapes"`
	Statuses   map[string]selection.Status `json:"statuses"`
}

// Layout handles GET /v1/bookfairs/:id/layout.
func (h *PublicHandler) Layout(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()

	id := c.Param("id")
	counts, layout, statuses, err := h.load(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, layoutResp{
		BookFairID: id,
		Counts:     counts,
		Width:      layout.Width,
		Height:     layout.Height,
		Shapes:     layout.Shapes,
		Statuses:   statuses,
	})
}

// SVG handles GET /v1/bookfairs/:id/layout.svg.
func (h *PublicHandler) SVG(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()

	_, layout, statuses, err := h.load(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	names := make(map[string]string, len(statuses))
	for id, st := range statuses {
		names[id] = string(st)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", []byte(floorplan.RenderSVG(layout, names, h.Palette)))
}

// PriceList handles GET /v1/pricing.  ?size= narrows the list to one class.
func (h *PublicHandler) PriceList(c echo.Context) error {
	sizes := floorplan.Sizes
	if q := c.QueryParam("size"); q != "" {
		size, err := floorplan.ParseSize(q)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		sizes = []floorplan.Size{size}
	}
	prices := make(map[floorplan.Size]int64, len(sizes))
	for _, s := range sizes {
		if p, err := h.Pricing.Price(s); err == nil {
			prices[s] = p
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"prices":      prices,
		"vat_rate":    h.Pricing.VATRate,
		"service_fee": h.Pricing.ServiceFee,
		"max_held":    h.MaxHeld,
	})
}

func (h *PublicHandler) load(ctx context.Context, id string) (floorplan.Counts, floorplan.Layout, map[string]selection.Status, error) {
	counts, err := h.Source.Counts(ctx, id)
	if err != nil {
		return counts, floorplan.Layout{}, nil, err
	}
	layout, err := floorplan.Generate(counts)
	if err != nil {
		return counts, floorplan.Layout{}, nil, err
	}
	statuses := make(map[string]selection.Status, len(layout.Shapes))
	for _, sid := range layout.IDs() {
		statuses[sid] = selection.Available
	}
	if h.Allocations != nil {
		alloc, err := h.Allocations.Allocations(ctx, id)
		if err != nil {
			return counts, floorplan.Layout{}, nil, err
		}
		for sid, st := range alloc {
			if _, ok := statuses[sid]; !ok {
				continue
			}
			if st == model.ReservationBooked {
				statuses[sid] = selection.Booked
			} else {
				statuses[sid] = selection.Processing
			}
		}
	}
	return counts, layout, statuses, nil
}
