package layoutsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
)

const fullPayload = `{"topRows":2,"topCols":8,"leftRows":6,"leftCols":2,"rightRows":6,"rightCols":2,
"bottomRows":2,"bottomCols":10,"innerRing":12,"outerRing":24}`

func newServer(t *testing.T, hits *int32, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCounts(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookfairs/colombo-2026/layout", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fullPayload))
	})

	c, err := NewClient(srv.URL+"/", time.Second).Counts(context.Background(), "colombo-2026")
	require.NoError(t, err)
	assert.Equal(t, floorplan.Counts{TopRows: 2, TopCols: 8, LeftRows: 6, LeftCols: 2, RightRows: 6, RightCols: 2,
		BottomRows: 2, BottomCols: 10, InnerRing: 12, OuterRing: 24}, c)
}

func TestClientMissingFieldsAreInvalid(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"topRows":2,"topCols":8}`))
	})
	_, err := NewClient(srv.URL, time.Second).Counts(context.Background(), "x")
	require.ErrorIs(t, err, floorplan.ErrInvalidLayout)
	assert.Contains(t, err.Error(), "outerRing")

	srv2 := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err = NewClient(srv2.URL, time.Second).Counts(context.Background(), "x")
	assert.ErrorIs(t, err, floorplan.ErrInvalidLayout)
}

func TestClientNotFoundDoesNotTripBreaker(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := NewClient(srv.URL, time.Second)
	for i := 0; i < 5; i++ {
		_, err := c.Counts(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrBookFairNotFound)
	}
	assert.Equal(t, "closed", c.State())
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestClientBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := NewClient(srv.URL, time.Second)
	for i := 0; i < 3; i++ {
		_, err := c.Counts(context.Background(), "x")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", c.State())

	_, err := c.Counts(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}
