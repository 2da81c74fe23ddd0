package router

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/layoutsource"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
	"github.com/iliyamo/bookfair-stall-reservation/internal/repository"
)

// layouts serves as both the layout source and the organiser layout store.
type layouts struct {
	mu sync.Mutex
	m  map[string]model.BookFairLayout
}

func newLayouts(counts map[string]floorplan.Counts) *layouts {
	l := &layouts{m: map[string]model.BookFairLayout{}}
	for id, c := range counts {
		l.m[id] = model.BookFairLayout{BookFairID: id, Counts: c}
	}
	return l
}

func (l *layouts) Counts(ctx context.Context, id string) (floorplan.Counts, error) {
	got, err := l.Get(ctx, id)
	if err != nil {
		return floorplan.Counts{}, layoutsource.ErrBookFairNotFound
	}
	return got.Counts, nil
}

func (l *layouts) Get(_ context.Context, id string) (model.BookFairLayout, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	got, ok := l.m[id]
	if !ok {
		return model.BookFairLayout{}, repository.ErrLayoutNotFound
	}
	return got, nil
}

func (l *layouts) Upsert(_ context.Context, id string, c floorplan.Counts, by uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[id] = model.BookFairLayout{BookFairID: id, Counts: c, UpdatedBy: &by, UpdatedAt: time.Now()}
	return nil
}

type reservations struct {
	mu   sync.Mutex
	next uint64
	m    map[uint64]model.Reservation
}

func newReservations() *reservations { return &reservations{m: map[uint64]model.Reservation{}} }

func (r *reservations) Allocations(_ context.Context, fair string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]string{}
	for _, res := range r.m {
		if res.BookFairID == fair && res.Status != model.ReservationCancelled {
			for _, s := range res.Stalls {
				out[s.StallID] = res.Status
			}
		}
	}
	return out, nil
}

func (r *reservations) Create(ctx context.Context, res *model.Reservation) error {
	taken, _ := r.Allocations(ctx, res.BookFairID)
	for _, s := range res.Stalls {
		if _, ok := taken[s.StallID]; ok {
			return repository.ErrConflict
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	res.ID = r.next
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	r.m[res.ID] = *res
	return nil
}

func (r *reservations) SetStatus(_ context.Context, id uint64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.m[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	res.Status = status
	r.m[id] = res
	return nil
}

func (r *reservations) Cancel(_ context.Context, id uint64, userID *uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.m[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if userID != nil && *userID != res.UserID {
		return repository.ErrForbidden
	}
	if res.Status == model.ReservationCancelled {
		return repository.ErrConflict
	}
	res.Status = model.ReservationCancelled
	res.Stalls = nil
	r.m[id] = res
	return nil
}

func (r *reservations) GetByID(_ context.Context, id uint64) (model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.m[id]
	if !ok {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return res, nil
}

func (r *reservations) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	return r.list(func(res model.Reservation) bool { return res.UserID == userID }), nil
}

func (r *reservations) ListByBookFair(_ context.Context, fair string) ([]model.Reservation, error) {
	return r.list(func(res model.Reservation) bool { return res.BookFairID == fair }), nil
}

func (r *reservations) list(keep func(model.Reservation) bool) []model.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Reservation
	for _, res := range r.m {
		if keep(res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// pageCache caches 200 responses by path in process, the way the Redis
// response cache does, so tests can observe stale reads.
type pageCache struct {
	mu    sync.Mutex
	pages map[string]cachedPage
}

type cachedPage struct {
	contentType string
	body        []byte
}

type teeWriter struct {
	http.ResponseWriter
	buf *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func newPageCache() *pageCache { return &pageCache{pages: map[string]cachedPage{}} }

func (p *pageCache) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		p.mu.Lock()
		page, ok := p.pages[path]
		p.mu.Unlock()
		if ok {
			c.Response().Header().Set("X-Cache", "HIT")
			return c.Blob(http.StatusOK, page.contentType, page.body)
		}

		var buf bytes.Buffer
		c.Response().Header().Set("X-Cache", "MISS")
		c.Response().Writer = teeWriter{ResponseWriter: c.Response().Writer, buf: &buf}
		if err := next(c); err != nil {
			return err
		}
		if c.Response().Status == http.StatusOK {
			p.mu.Lock()
			p.pages[path] = cachedPage{contentType: c.Response().Header().Get(echo.HeaderContentType), body: buf.Bytes()}
			p.mu.Unlock()
		}
		return nil
	}
}

func (p *pageCache) purge(_ context.Context, bookFairID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, path := range LayoutPaths(bookFairID) {
		delete(p.pages, path)
	}
}
