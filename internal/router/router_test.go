package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookfair-stall-reservation/internal/auth/authtest"
	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/handler"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
	"github.com/iliyamo/bookfair-stall-reservation/internal/session"
)

type env struct {
	e     *echo.Echo
	res   *reservations
	lays  *layouts
	cache *pageCache
}

func setup(t *testing.T) *env {
	t.Helper()
	lays := newLayouts(map[string]floorplan.Counts{
		"fair":   {TopRows: 1, TopCols: 4, LeftRows: 1, LeftCols: 1, InnerRing: 2},
		"broken": {TopRows: 3},
	})
	res := newReservations()
	verifier := authtest.Default()
	svc := session.NewService(session.NewMemoryStore(time.Hour), lays, res, nil, pricing.DefaultTable(), 3)
	cache := newPageCache()
	svc.Invalidate = cache.purge

	e := echo.New()
	RegisterRoutes(e, handler.Health(nil), nil)
	RegisterPublic(e, &handler.PublicHandler{Source: lays, Allocations: res, Pricing: pricing.DefaultTable(), Palette: floorplan.DefaultPalette, MaxHeld: 3},
		cache.middleware)
	rh := &handler.ReservationHandler{Reservations: res, Sessions: svc}
	RegisterPublisher(e, &handler.SessionHandler{Sessions: svc}, rh, verifier)
	RegisterAdmin(e, &handler.AdminHandler{Sessions: svc, Layouts: lays, Purge: cache.purge}, rh, verifier)
	return &env{e: e, res: res, lays: lays, cache: cache}
}

func (v *env) call(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	v := setup(t)
	rec, body := v.call(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestPublicLayout(t *testing.T) {
	v := setup(t)

	rec, body := v.call(t, http.MethodGet, "/v1/bookfairs/fair/layout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["shapes"], 7)
	assert.Equal(t, "available", body["statuses"].(map[string]any)["T-1"])

	rec, _ = v.call(t, http.MethodGet, "/v1/bookfairs/nope/layout", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = v.call(t, http.MethodGet, "/v1/bookfairs/broken/layout", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = v.call(t, http.MethodGet, "/v1/bookfairs/fair/layout.svg", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))

	rec, body = v.call(t, http.MethodGet, "/v1/pricing", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"SMALL": 50000.0, "MEDIUM": 80000.0, "LARGE": 120000.0}, body["prices"])
	assert.Equal(t, 3.0, body["max_held"])

	rec, body = v.call(t, http.MethodGet, "/v1/pricing?size=large", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"LARGE": 120000.0}, body["prices"])
	rec, body = v.call(t, http.MethodGet, "/v1/pricing?size=huge", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `unknown stall size "huge"`, body["error"])
}

func TestSessionFlow(t *testing.T) {
	v := setup(t)

	rec, _ := v.call(t, http.MethodPost, "/v1/sessions", "", `{"book_fair_id":"fair"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := v.call(t, http.MethodPost, "/v1/sessions", authtest.PublisherToken, `{"book_fair_id":"fair"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := body["id"].(string)
	base := "/v1/sessions/" + id

	for _, stall := range []string{"L-1", "T-1", "IR-1"} {
		rec, body = v.call(t, http.MethodPost, base+"/stalls/"+stall+"/toggle", authtest.PublisherToken, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "held", body["status"])
	}

	rec, body = v.call(t, http.MethodPost, base+"/stalls/T-2/toggle", authtest.PublisherToken, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 3.0, body["limit"])
	assert.Equal(t, "you can select at most 3 stalls", body["error"])

	rec, _ = v.call(t, http.MethodPost, base+"/stalls/Z-9/toggle", authtest.PublisherToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// another publisher cannot see the session
	rec, _ = v.call(t, http.MethodGet, base, authtest.OtherToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = v.call(t, http.MethodGet, base+"/summary", authtest.PublisherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 250000.0, body["subtotal"])
	assert.Equal(t, 37500.0, body["vat"])
	assert.Equal(t, 292500.0, body["total"])

	rec, body = v.call(t, http.MethodPost, base+"/checkout", authtest.PublisherToken, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "PROCESSING", body["reservation"].(map[string]any)["status"])

	rec, body = v.call(t, http.MethodGet, base, authtest.PublisherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["held"])
	assert.Equal(t, "processing", body["statuses"].(map[string]any)["T-1"])

	rec, _ = v.call(t, http.MethodPost, base+"/checkout", authtest.PublisherToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = v.call(t, http.MethodGet, "/v1/my-reservations", authtest.PublisherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 1)
	rec, body = v.call(t, http.MethodGet, "/v1/my-reservations", authtest.OtherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["items"])

	// public layout now shows the allocation
	_, body = v.call(t, http.MethodGet, "/v1/bookfairs/fair/layout", "", "")
	assert.Equal(t, "processing", body["statuses"].(map[string]any)["IR-1"])
}

func TestStageAndConfirmRoutes(t *testing.T) {
	v := setup(t)
	_, body := v.call(t, http.MethodPost, "/v1/sessions", authtest.PublisherToken, `{"book_fair_id":"fair"}`)
	base := "/v1/sessions/" + body["id"].(string)

	rec, _ := v.call(t, http.MethodPost, base+"/pending/confirm", authtest.PublisherToken, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = v.call(t, http.MethodPost, base+"/stalls/T-2/stage", authtest.PublisherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "T-2", body["pending"])

	rec, body = v.call(t, http.MethodDelete, base+"/pending", authtest.PublisherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "T-2", body["stall"])

	_, _ = v.call(t, http.MethodPost, base+"/stalls/T-3/stage", authtest.PublisherToken, "")
	rec, body = v.call(t, http.MethodPost, base+"/pending/confirm", authtest.PublisherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"T-3"}, body["session"].(map[string]any)["held"])
}

func TestAdminRoutes(t *testing.T) {
	v := setup(t)

	rec, _ := v.call(t, http.MethodPut, "/v1/admin/bookfairs/new/layout", authtest.PublisherToken, `{"innerRing":4}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = v.call(t, http.MethodPut, "/v1/admin/bookfairs/new/layout", authtest.OrganizerToken, `{"topRows":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body := v.call(t, http.MethodPut, "/v1/admin/bookfairs/new/layout", authtest.OrganizerToken, `{"innerRing":4,"outerRing":8}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 12.0, body["stalls"])

	rec, body = v.call(t, http.MethodGet, "/v1/admin/bookfairs/new/layout", authtest.OrganizerToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["updated_by"])

	_, body = v.call(t, http.MethodPost, "/v1/sessions", authtest.PublisherToken, `{"book_fair_id":"new"}`)
	id := body["id"].(string)
	_, _ = v.call(t, http.MethodPost, "/v1/sessions/"+id+"/stalls/OR-1/toggle", authtest.PublisherToken, "")
	_, _ = v.call(t, http.MethodPost, "/v1/sessions/"+id+"/stalls/OR-2/toggle", authtest.PublisherToken, "")

	rec, body = v.call(t, http.MethodPost, "/v1/admin/sessions/"+id+"/process", authtest.OrganizerToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"OR-1", "OR-2"}, body["processing"])

	rec, body = v.call(t, http.MethodPost, "/v1/admin/sessions/"+id+"/book", authtest.OrganizerToken, `{"stalls":["OR-2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"OR-2"}, body["booked"])

	rec, body = v.call(t, http.MethodPost, "/v1/admin/sessions/"+id+"/clear-held", authtest.OrganizerToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["released"])

	rec, _ = v.call(t, http.MethodPost, "/v1/admin/sessions/missing/process", authtest.OrganizerToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReservationCancellation(t *testing.T) {
	v := setup(t)
	_, body := v.call(t, http.MethodPost, "/v1/sessions", authtest.PublisherToken, `{"book_fair_id":"fair"}`)
	base := "/v1/sessions/" + body["id"].(string)
	_, _ = v.call(t, http.MethodPost, base+"/stalls/T-4/toggle", authtest.PublisherToken, "")
	rec, _ := v.call(t, http.MethodPost, base+"/checkout", authtest.PublisherToken, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = v.call(t, http.MethodGet, "/v1/my-reservations/1", authtest.OtherToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = v.call(t, http.MethodDelete, "/v1/my-reservations/1", authtest.OtherToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = v.call(t, http.MethodGet, "/v1/my-reservations/x", authtest.PublisherToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = v.call(t, http.MethodGet, "/v1/admin/bookfairs/fair/reservations", authtest.OrganizerToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 1)

	rec, _ = v.call(t, http.MethodDelete, "/v1/admin/reservations/1", authtest.OrganizerToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = v.call(t, http.MethodDelete, "/v1/admin/reservations/1", authtest.OrganizerToken, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublicLayoutFollowsAllocationChanges(t *testing.T) {
	v := setup(t)
	status := func(stall string) (string, string) {
		t.Helper()
		rec, body := v.call(t, http.MethodGet, "/v1/bookfairs/fair/layout", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		return body["statuses"].(map[string]any)[stall].(string), rec.Header().Get("X-Cache")
	}

	st, hit := status("T-1")
	assert.Equal(t, "available", st)
	assert.Equal(t, "MISS", hit)
	_, hit = status("T-1")
	assert.Equal(t, "HIT", hit)

	_, body := v.call(t, http.MethodPost, "/v1/sessions", authtest.PublisherToken, `{"book_fair_id":"fair"}`)
	base := "/v1/sessions/" + body["id"].(string)
	_, _ = v.call(t, http.MethodPost, base+"/stalls/T-1/toggle", authtest.PublisherToken, "")
	rec, _ := v.call(t, http.MethodPost, base+"/checkout", authtest.PublisherToken, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	st, hit = status("T-1")
	assert.Equal(t, "processing", st)
	assert.Equal(t, "MISS", hit)

	rec, _ = v.call(t, http.MethodPost, "/v1/admin/sessions/"+body["id"].(string)+"/book", authtest.OrganizerToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st, _ = status("T-1")
	assert.Equal(t, "booked", st)

	rec, _ = v.call(t, http.MethodDelete, "/v1/my-reservations/1", authtest.PublisherToken, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	st, _ = status("T-1")
	assert.Equal(t, "available", st)

	// the publisher's session sees the stall freed as well
	rec, body = v.call(t, http.MethodGet, base, authtest.PublisherToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "available", body["statuses"].(map[string]any)["T-1"])

	// svg shares the purge
	svg := func() string {
		rec := httptest.NewRecorder()
		v.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bookfairs/fair/layout.svg", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Header().Get("X-Cache")
	}
	assert.Equal(t, "MISS", svg())
	assert.Equal(t, "HIT", svg())
	v.cache.purge(context.Background(), "fair")
	assert.Equal(t, "MISS", svg())
}

func TestEndSession(t *testing.T) {
	v := setup(t)
	_, body := v.call(t, http.MethodPost, "/v1/sessions", authtest.PublisherToken, `{"book_fair_id":"fair"}`)
	base := "/v1/sessions/" + body["id"].(string)

	rec, _ := v.call(t, http.MethodDelete, base, authtest.OtherToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = v.call(t, http.MethodDelete, base, authtest.PublisherToken, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = v.call(t, http.MethodGet, base, authtest.PublisherToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
