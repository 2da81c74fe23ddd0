package layoutsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/metrics"
)

// Client calls the external layout API through a circuit breaker.  Lookups
// for unknown book fairs and malformed payloads do not count as breaker
// failures; transport errors and 5xx responses do.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	const name = "layout-api"
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrBookFairNotFound) || errors.Is(err, floorplan.ErrInvalidLayout)
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateValue(to))
			log.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("layout api circuit breaker state changed")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		breaker: cb,
	}
}

// wireCounts mirrors the API payload.  Pointers distinguish a missing field
// from an explicit zero.
type wireCounts struct {
	TopRows    *int `json:"topRows"`
	TopCols    *int `json:"topCols"`
	LeftRows   *int `json:"leftRows"`
	LeftCols   *int `json:"leftCols"`
	RightRows  *int `json:"rightRows"`
	RightCols  *int `json:"rightCols"`
	BottomRows *int `json:"bottomRows"`
	BottomCols *int `json:"bottomCols"`
	InnerRing  *int `json:"innerRing"`
	OuterRing  *int `json:"outerRing"`
}

func (w wireCounts) counts() (floorplan.Counts, error) {
	var c floorplan.Counts
	fields := []struct {
		name string
		src  *int
		dst  *int
	}{
		{"topRows", w.TopRows, &c.TopRows},
		{"topCols", w.TopCols, &c.TopCols},
		{"leftRows", w.LeftRows, &c.LeftRows},
		{"leftCols", w.LeftCols, &c.LeftCols},
		{"rightRows", w.RightRows, &c.RightRows},
		{"rightCols", w.RightCols, &c.RightCols},
		{"bottomRows", w.BottomRows, &c.BottomRows},
		{"bottomCols", w.BottomCols, &c.BottomCols},
		{"innerRing", w.InnerRing, &c.InnerRing},
		{"outerRing", w.OuterRing, &c.OuterRing},
	}
	var missing []string
	for _, f := range fields {
		if f.src == nil {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = *f.src
	}
	if len(missing) > 0 {
		return floorplan.Counts{}, fmt.Errorf("%w: missing %s", floorplan.ErrInvalidLayout, strings.Join(missing, ", "))
	}
	return c, nil
}

// Counts implements Source.
func (c *Client) Counts(ctx context.Context, bookFairID string) (floorplan.Counts, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, bookFairID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return floorplan.Counts{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return floorplan.Counts{}, err
	}
	return out.(floorplan.Counts), nil
}

// State reports the breaker state for the health endpoint.
func (c *Client) State() string { return c.breaker.State().String() }

func (c *Client) fetch(ctx context.Context, bookFairID string) (floorplan.Counts, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/bookfairs/" + url.PathEscape(bookFairID) + "/layout")
	if err != nil {
		return floorplan.Counts{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return floorplan.Counts{}, ErrBookFairNotFound
	case resp.StatusCode() != http.StatusOK:
		return floorplan.Counts{}, fmt.Errorf("%w: layout api returned status %d", ErrUnavailable, resp.StatusCode())
	}

	var w wireCounts
	if err := json.Unmarshal(resp.Body(), &w); err != nil {
		return floorplan.Counts{}, fmt.Errorf("%w: %v", floorplan.ErrInvalidLayout, err)
	}
	return w.counts()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	}
	return 0
}
