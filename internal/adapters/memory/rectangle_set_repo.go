// Package memory keeps rectangle sets in process, indexed with an R-tree for
// viewport queries. It backs the offline CLI and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// Zero-area rectangles still need an extent in the tree (~11 m).
const minExtent = 0.0001

type indexedRect struct {
	set  string
	ord  int
	rect domain.Rectangle
}

// Bounds implements rtreego.Spatial.
func (r *indexedRect) Bounds() rtreego.Rect {
	b := r.rect.Bounds()
	point := rtreego.Point{b.MinLng, b.MinLat}
	rect, _ := rtreego.NewRect(point, []float64{
		extent(b.MaxLng - b.MinLng),
		extent(b.MaxLat - b.MinLat),
	})
	return rect
}

func extent(d float64) float64 {
	if d < minExtent {
		return minExtent
	}
	return d
}

// RectangleSetRepo implements ports.RectangleSetRepository in memory.
type RectangleSetRepo struct {
	mu      sync.RWMutex
	sets    map[string]domain.RectangleSet
	entries map[string][]*indexedRect
	tree    *rtreego.Rtree
	now     func() time.Time
}

// NewRectangleSetRepo creates an empty repository.
func NewRectangleSetRepo() *RectangleSetRepo {
	return &RectangleSetRepo{
		sets:    make(map[string]domain.RectangleSet),
		entries: make(map[string][]*indexedRect),
		tree:    rtreego.NewTree(2, 25, 50),
		now:     time.Now,
	}
}

func (r *RectangleSetRepo) Upsert(ctx context.Context, set *domain.RectangleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unindex(set.Name)

	set.UpdatedAt = r.now().UTC()
	stored := *set
	stored.Rectangles = append([]domain.Rectangle{}, set.Rectangles...)
	r.sets[set.Name] = stored

	entries := make([]*indexedRect, len(stored.Rectangles))
	for i, rect := range stored.Rectangles {
		e := &indexedRect{set: set.Name, ord: i, rect: rect}
		r.tree.Insert(e)
		entries[i] = e
	}
	r.entries[set.Name] = entries
	return nil
}

func (r *RectangleSetRepo) Get(ctx context.Context, name string) (*domain.RectangleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sets[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	set.Rectangles = append([]domain.Rectangle{}, set.Rectangles...)
	return &set, nil
}

func (r *RectangleSetRepo) List(ctx context.Context) ([]domain.SetSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.SetSummary, 0, len(r.sets))
	for _, s := range r.sets {
		out = append(out, domain.SetSummary{Name: s.Name, Rectangles: s.Len(), UpdatedAt: s.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RectangleSetRepo) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sets[name]; !ok {
		return domain.ErrNotFound
	}
	r.unindex(name)
	delete(r.sets, name)
	return nil
}

// Intersecting returns rectangles intersecting b, ordered by set name then
// position in the set. Rectangles without a color take their set's default.
func (r *RectangleSetRepo) Intersecting(ctx context.Context, b domain.Bounds, limit int) ([]domain.Rectangle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query, err := rtreego.NewRect(rtreego.Point{b.MinLng, b.MinLat}, []float64{
		extent(b.MaxLng - b.MinLng),
		extent(b.MaxLat - b.MinLat),
	})
	if err != nil {
		return nil, err
	}

	var hits []*indexedRect
	for _, s := range r.tree.SearchIntersect(query) {
		e := s.(*indexedRect)
		// The tree pads degenerate extents; check the real bounds.
		if e.rect.Bounds().Intersects(b) {
			hits = append(hits, e)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].set != hits[j].set {
			return hits[i].set < hits[j].set
		}
		return hits[i].ord < hits[j].ord
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]domain.Rectangle, len(hits))
	for i, e := range hits {
		rect := e.rect
		rect.Color = rect.StrokeColor(r.sets[e.set].DefaultColor)
		out[i] = rect
	}
	return out, nil
}

func (r *RectangleSetRepo) unindex(name string) {
	for _, e := range r.entries[name] {
		r.tree.Delete(e)
	}
	delete(r.entries, name)
}
